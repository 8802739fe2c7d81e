package indicator

import (
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
	"github.com/sharavanan171081/AI-Stock-App/internal/ringbuf"
)

// Bollinger computes SMA(period) ± k·σ of closes, σ being the population
// standard deviation of the window.
type Bollinger struct {
	period int
	k      float64
	win    *ringbuf.Window
	mid    float64
	dev    float64
}

// NewBollinger creates Bollinger bands, typically NewBollinger(20, 2).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{period: period, k: k, win: ringbuf.New(period)}
}

func (b *Bollinger) Name() string { return "BB" }

func (b *Bollinger) Update(p model.PricePoint) {
	b.win.Push(p.Close)
	if b.win.Full() {
		b.mid = b.win.Mean()
		b.dev = b.win.Std(0)
	}
}

// Value returns the middle band.
func (b *Bollinger) Value() float64 { return b.mid }
func (b *Bollinger) Ready() bool    { return b.win.Full() }

// Upper returns the upper band.
func (b *Bollinger) Upper() float64 { return b.mid + b.k*b.dev }

// Lower returns the lower band.
func (b *Bollinger) Lower() float64 { return b.mid - b.k*b.dev }

func (b *Bollinger) Reset() {
	b.win.Reset()
	b.mid, b.dev = 0, 0
}
