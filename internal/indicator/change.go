package indicator

import (
	"math"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
	"github.com/sharavanan171081/AI-Stock-App/internal/ringbuf"
)

// PctChange is the fractional change of a source over period bars:
// (x[t] - x[t-period]) / x[t-period].
//
// Once ready, Value may be NaN or ±Inf when the reference value is zero;
// callers store such readings as null.
type PctChange struct {
	period  int
	name    string
	src     Source
	hist    *ringbuf.Window
	current float64
	ready   bool
}

// NewPctChange creates a close-to-close percentage change over period bars.
func NewPctChange(period int) *PctChange {
	return NewPctChangeOf("RET", period, CloseSource)
}

// NewPctChangeOf creates a percentage change over an arbitrary source.
func NewPctChangeOf(name string, period int, src Source) *PctChange {
	return &PctChange{
		period: period,
		name:   name,
		src:    src,
		hist:   ringbuf.New(period + 1),
	}
}

func (c *PctChange) Name() string { return c.name }

func (c *PctChange) Update(p model.PricePoint) {
	c.hist.Push(c.src(p))
	if !c.hist.Full() {
		return
	}
	vals := c.hist.Values()
	ref, cur := vals[0], vals[len(vals)-1]
	c.current = (cur - ref) / ref
	c.ready = true
}

func (c *PctChange) Value() float64 {
	if !c.ready {
		return 0
	}
	return c.current
}

func (c *PctChange) Ready() bool { return c.ready }

func (c *PctChange) Reset() {
	c.hist.Reset()
	c.current = 0
	c.ready = false
}

// RollingVolatility is the sample standard deviation of the last period
// one-bar close returns. A non-finite return restarts the window.
type RollingVolatility struct {
	period  int
	ret     *PctChange
	win     *ringbuf.Window
	current float64
}

// NewRollingVolatility creates a rolling volatility over period returns.
func NewRollingVolatility(period int) *RollingVolatility {
	return &RollingVolatility{
		period: period,
		ret:    NewPctChange(1),
		win:    ringbuf.New(period),
	}
}

func (v *RollingVolatility) Name() string { return "RVOL" }

func (v *RollingVolatility) Update(p model.PricePoint) {
	v.ret.Update(p)
	if !v.ret.Ready() {
		return
	}
	r := v.ret.Value()
	if math.IsNaN(r) || math.IsInf(r, 0) {
		v.win.Reset()
		return
	}
	v.win.Push(r)
	if v.win.Full() {
		v.current = v.win.Std(1)
	}
}

func (v *RollingVolatility) Value() float64 {
	if !v.Ready() {
		return 0
	}
	return v.current
}

func (v *RollingVolatility) Ready() bool { return v.win.Full() }

func (v *RollingVolatility) Reset() {
	v.ret.Reset()
	v.win.Reset()
	v.current = 0
}
