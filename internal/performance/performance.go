// Package performance scores stored predictions against realised prices.
package performance

import (
	"math"
	"sort"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// Outcome is one history record joined with what actually happened.
type Outcome struct {
	model.PredictionRecord
	Close           float64         `json:"close"`
	NextClose       float64         `json:"next_close"`
	ActualDirection model.Direction `json:"actual_direction"`
	Correct         bool            `json:"correct"`
	PriceError      float64         `json:"price_error"` // predicted - next close
}

// SymbolStats is accuracy for one instrument.
type SymbolStats struct {
	Symbol    string  `json:"symbol"`
	Evaluated int     `json:"evaluated"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
	MAE       float64 `json:"mae"`
}

// Report aggregates outcomes. Pending counts records whose next close is
// not stored yet (or whose prediction date has no stored close).
type Report struct {
	Evaluated int           `json:"evaluated"`
	Correct   int           `json:"correct"`
	Accuracy  float64       `json:"accuracy"`
	MAE       float64       `json:"mae"`
	Pending   int           `json:"pending"`
	BySymbol  []SymbolStats `json:"by_symbol"`
	Outcomes  []Outcome     `json:"outcomes"`
}

// Evaluate joins each prediction with the stored close on its date and the
// next stored close for the same symbol. The actual direction is UP iff the
// next close is strictly higher.
func Evaluate(history []model.PredictionRecord, prices map[string][]model.PricePoint) Report {
	var rep Report
	stats := make(map[string]*SymbolStats)
	absErr := make(map[string]float64)
	totalAbs := 0.0

	for _, rec := range history {
		series := prices[rec.Symbol]
		i := sort.Search(len(series), func(k int) bool { return !series[k].Date.Before(rec.Date) })
		if i >= len(series) || !series[i].Date.Equal(rec.Date) || i+1 >= len(series) {
			rep.Pending++
			continue
		}
		cur, next := series[i].Close, series[i+1].Close
		actual := model.Down
		if next > cur {
			actual = model.Up
		}
		o := Outcome{
			PredictionRecord: rec,
			Close:            cur,
			NextClose:        next,
			ActualDirection:  actual,
			Correct:          rec.PredictedDirection == actual,
			PriceError:       rec.PredictedPrice - next,
		}
		rep.Outcomes = append(rep.Outcomes, o)

		s := stats[rec.Symbol]
		if s == nil {
			s = &SymbolStats{Symbol: rec.Symbol}
			stats[rec.Symbol] = s
		}
		s.Evaluated++
		rep.Evaluated++
		if o.Correct {
			s.Correct++
			rep.Correct++
		}
		absErr[rec.Symbol] += math.Abs(o.PriceError)
		totalAbs += math.Abs(o.PriceError)
	}

	if rep.Evaluated > 0 {
		rep.Accuracy = float64(rep.Correct) / float64(rep.Evaluated)
		rep.MAE = totalAbs / float64(rep.Evaluated)
	}
	for sym, s := range stats {
		s.Accuracy = float64(s.Correct) / float64(s.Evaluated)
		s.MAE = absErr[sym] / float64(s.Evaluated)
		rep.BySymbol = append(rep.BySymbol, *s)
	}
	sort.Slice(rep.BySymbol, func(i, j int) bool { return rep.BySymbol[i].Symbol < rep.BySymbol[j].Symbol })
	return rep
}
