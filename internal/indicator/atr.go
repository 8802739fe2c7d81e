package indicator

import (
	"math"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// ATR is Wilder's Average True Range. The first bar's true range is its
// high-low span; later bars also consider gaps from the previous close.
type ATR struct {
	s         *smma
	prevClose float64
	seen      bool
}

// NewATR creates an ATR indicator with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{s: newSMMA(period)}
}

func (a *ATR) Name() string { return "ATR" }

func (a *ATR) Update(p model.PricePoint) {
	tr := p.High - p.Low
	if a.seen {
		tr = math.Max(tr, math.Max(math.Abs(p.High-a.prevClose), math.Abs(p.Low-a.prevClose)))
	}
	a.prevClose = p.Close
	a.seen = true
	a.s.update(tr)
}

func (a *ATR) Value() float64 {
	if !a.s.ready() {
		return 0
	}
	return a.s.current
}

func (a *ATR) Ready() bool { return a.s.ready() }

func (a *ATR) Reset() {
	a.s.reset()
	a.prevClose = 0
	a.seen = false
}
