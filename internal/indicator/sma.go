package indicator

import (
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
	"github.com/sharavanan171081/AI-Stock-App/internal/ringbuf"
)

// SMA calculates Simple Moving Average over a rolling window of closes.
type SMA struct {
	period  int
	win     *ringbuf.Window
	current float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		win:    ringbuf.New(period),
	}
}

func (s *SMA) Name() string { return "SMA" }

func (s *SMA) Update(p model.PricePoint) {
	s.win.Push(p.Close)
	if s.win.Full() {
		s.current = s.win.Mean()
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.win.Full() }

// Reset clears the SMA state for reuse.
func (s *SMA) Reset() {
	s.win.Reset()
	s.current = 0
}
