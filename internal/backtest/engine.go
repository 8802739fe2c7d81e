// Package backtest simulates a single-position ATR stop/target strategy
// over one instrument's daily series.
//
// The simulator is FLAT or LONG. It enters when close > SMA_20 and
// RSI_14 > 50, and exits on the first matching rule of stop-loss,
// take-profit and trend-break. Equity is realised only on exit, so the
// curve is flat while a position is open.
package backtest

import (
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/indicator"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

var required = []model.Field{model.FieldSMA20, model.FieldRSI14, model.FieldATR14}

var engine = indicator.NewEngine(indicator.BacktestConfigs())

// Run computes SMA_20, RSI_14 and ATR_14 over series and simulates on the
// rows where all three are defined. ok is false when fewer than
// opts.MinRows such rows exist.
func Run(series []model.PricePoint, opts Options) (Result, bool) {
	return RunRows(engine.Compute(series), opts)
}

// RunRows simulates over precomputed indicator rows. Rows missing any of
// SMA_20, RSI_14 or ATR_14 are dropped first.
func RunRows(rows []model.IndicatorRow, opts Options) (Result, bool) {
	opts = opts.withDefaults()

	usable := make([]model.IndicatorRow, 0, len(rows))
	for _, r := range rows {
		if r.Has(required...) {
			usable = append(usable, r)
		}
	}
	if len(usable) < opts.MinRows {
		return Result{}, false
	}
	return simulate(usable, opts), true
}

// bar is the per-row view the rules evaluate.
type bar struct {
	close, sma, rsi, atr float64
}

func barOf(r *model.IndicatorRow) bar {
	sma, _ := r.Get(model.FieldSMA20)
	rsi, _ := r.Get(model.FieldRSI14)
	atr, _ := r.Get(model.FieldATR14)
	return bar{close: r.Close, sma: sma, rsi: rsi, atr: atr}
}

func shouldEnter(b bar) bool {
	return b.close > b.sma && b.rsi > 50
}

func simulate(rows []model.IndicatorRow, opts Options) Result {
	res := Result{
		Symbol: rows[0].Symbol,
		Rows:   rows,
		Dates:  make([]time.Time, len(rows)),
		Equity: make([]float64, len(rows)),
	}

	state := Flat
	var pos Position
	equity := 1.0

	for i := range rows {
		b := barOf(&rows[i])

		switch state {
		case Flat:
			if shouldEnter(b) {
				pos = Position{
					EntryDate:  rows[i].Date,
					EntryPrice: b.close,
					StopPrice:  b.close - opts.StopMultiplier*b.atr,
					TakeProfit: b.close + opts.TakeProfitMultiplier*b.atr,
				}
				state = Long
			}
		case Long:
			if reason := evaluateExit(exitRules, pos, b); reason != NoExit {
				equity *= b.close / pos.EntryPrice
				res.Trades = append(res.Trades, Trade{
					Position:  pos,
					ExitDate:  rows[i].Date,
					ExitPrice: b.close,
					Return:    b.close/pos.EntryPrice - 1,
					Reason:    reason,
				})
				state = Flat
			}
		}

		res.Dates[i] = rows[i].Date
		res.Equity[i] = equity
	}

	if state == Long {
		last := rows[len(rows)-1]
		res.Open = &Trade{
			Position:  pos,
			ExitPrice: last.Close,
			Return:    last.Close/pos.EntryPrice - 1,
			Reason:    NoExit,
		}
	}

	res.TotalReturn = equity - 1.0
	res.MaxDrawdown = MaxDrawdown(res.Equity)
	res.WinRate = winRate(res.Trades)
	return res
}

// MaxDrawdown returns the most negative (equity - running max) / running max.
// It is 0 for a non-decreasing curve.
func MaxDrawdown(equity []float64) float64 {
	worst := 0.0
	peak := 0.0
	for i, e := range equity {
		if i == 0 || e > peak {
			peak = e
		}
		if dd := (e - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

func winRate(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.Return > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

// Tail returns the last n points of series (all of it if shorter).
func Tail(series []model.PricePoint, n int) []model.PricePoint {
	if n <= 0 || n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}
