package indicator

import "github.com/sharavanan171081/AI-Stock-App/internal/model"

// RSI calculates the Relative Strength Index with Wilder smoothing
// (alpha = 1/period) of up and down moves.
//
// The first bar contributes a zero gain and zero loss, so the index becomes
// defined on the period-th bar. When both averages are zero the series is
// flat and the reading is neutral (50). Update is O(1) per bar.
type RSI struct {
	period    int
	count     int
	prevClose float64
	avgGain   *ewm
	avgLoss   *ewm
	current   float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	alpha := 1.0 / float64(period)
	return &RSI{
		period:  period,
		avgGain: newEWM(alpha, period),
		avgLoss: newEWM(alpha, period),
	}
}

func (r *RSI) Name() string { return "RSI" }

func (r *RSI) Update(p model.PricePoint) {
	price := p.Close
	r.count++

	gain, loss := 0.0, 0.0
	if r.count > 1 {
		delta := price - r.prevClose
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
	}
	r.prevClose = price

	r.avgGain.update(gain)
	r.avgLoss.update(loss)

	if r.Ready() {
		r.current = rsiValue(r.avgGain.current, r.avgLoss.current)
	}
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50.0
	case avgLoss == 0:
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

func (r *RSI) Value() float64 { return r.current }
func (r *RSI) Ready() bool    { return r.avgGain.ready() }

// Reset clears the RSI state for reuse.
func (r *RSI) Reset() {
	r.count = 0
	r.prevClose = 0
	r.avgGain.reset()
	r.avgLoss.reset()
	r.current = 0
}
