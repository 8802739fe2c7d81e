package fetch

import (
	"sort"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// Clean drops bars with non-finite or non-positive OHLC or negative volume,
// normalises dates to calendar days, sorts by symbol then date and keeps
// the last bar for any repeated (symbol, date).
func Clean(points []model.PricePoint) []model.PricePoint {
	out := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		p.Date = model.Day(p.Date)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Date.Before(out[j].Date)
	})

	n := 0
	for i := range out {
		if n > 0 && out[n-1].Symbol == out[i].Symbol && out[n-1].Date.Equal(out[i].Date) {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// GroupBySymbol splits a flat list into per-symbol cleaned series.
func GroupBySymbol(points []model.PricePoint) map[string][]model.PricePoint {
	raw := make(map[string][]model.PricePoint)
	for _, p := range points {
		raw[p.Symbol] = append(raw[p.Symbol], p)
	}
	out := make(map[string][]model.PricePoint, len(raw))
	for sym, s := range raw {
		if c := Clean(s); len(c) > 0 {
			out[sym] = c
		}
	}
	return out
}
