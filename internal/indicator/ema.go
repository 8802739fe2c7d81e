package indicator

import "github.com/sharavanan171081/AI-Stock-App/internal/model"

// ewm is a recursive exponentially weighted mean seeded with the first
// observation: y0 = x0, yt = alpha*xt + (1-alpha)*y(t-1). It reports ready
// once minPeriods observations have been seen.
type ewm struct {
	alpha      float64
	minPeriods int
	count      int
	current    float64
}

func newEWM(alpha float64, minPeriods int) *ewm {
	return &ewm{alpha: alpha, minPeriods: minPeriods}
}

func (e *ewm) update(x float64) {
	e.count++
	if e.count == 1 {
		e.current = x
		return
	}
	e.current = e.alpha*x + (1-e.alpha)*e.current
}

func (e *ewm) ready() bool { return e.count >= e.minPeriods }

func (e *ewm) reset() {
	e.count = 0
	e.current = 0
}

// EMA calculates Exponential Moving Average with span = period
// (multiplier 2/(period+1)). O(1) per update, no window storage.
type EMA struct {
	period int
	src    Source
	e      *ewm
}

// NewEMA creates a new EMA over closes with the given period.
func NewEMA(period int) *EMA {
	return NewEMAOf(period, CloseSource)
}

// NewEMAOf creates an EMA over an arbitrary bar source.
func NewEMAOf(period int, src Source) *EMA {
	return &EMA{
		period: period,
		src:    src,
		e:      newEWM(2.0/float64(period+1), period),
	}
}

func (e *EMA) Name() string { return "EMA" }

func (e *EMA) Update(p model.PricePoint) { e.e.update(e.src(p)) }

func (e *EMA) Value() float64 {
	if !e.e.ready() {
		return 0
	}
	return e.e.current
}

func (e *EMA) Ready() bool { return e.e.ready() }

// Reset clears the EMA state for reuse.
func (e *EMA) Reset() { e.e.reset() }
