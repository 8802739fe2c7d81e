package backtest

import (
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// Default ATR multipliers for the protective stop and profit target.
const (
	DefaultStopMultiplier       = 2.0
	DefaultTakeProfitMultiplier = 3.0
)

// Options configures a run. Zero multipliers fall back to the defaults.
type Options struct {
	StopMultiplier       float64
	TakeProfitMultiplier float64
	// MinRows is the fewest indicator-complete rows a run needs. Minimum 1.
	MinRows int
}

// DefaultOptions returns stop=2×ATR, take-profit=3×ATR.
func DefaultOptions() Options {
	return Options{
		StopMultiplier:       DefaultStopMultiplier,
		TakeProfitMultiplier: DefaultTakeProfitMultiplier,
		MinRows:              1,
	}
}

func (o Options) withDefaults() Options {
	if o.StopMultiplier <= 0 {
		o.StopMultiplier = DefaultStopMultiplier
	}
	if o.TakeProfitMultiplier <= 0 {
		o.TakeProfitMultiplier = DefaultTakeProfitMultiplier
	}
	if o.MinRows < 1 {
		o.MinRows = 1
	}
	return o
}

// State is the simulator's position state.
type State int

const (
	Flat State = iota
	Long
)

func (s State) String() string {
	if s == Long {
		return "LONG"
	}
	return "FLAT"
}

// ExitReason records which rule closed a position.
type ExitReason int

const (
	NoExit ExitReason = iota
	StopLoss
	TakeProfit
	TrendBreak
)

func (r ExitReason) String() string {
	switch r {
	case StopLoss:
		return "STOP_LOSS"
	case TakeProfit:
		return "TAKE_PROFIT"
	case TrendBreak:
		return "TREND_BREAK"
	default:
		return "OPEN"
	}
}

// MarshalText encodes the reason by name.
func (r ExitReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Position is an open long.
type Position struct {
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	StopPrice  float64   `json:"stop_price"`
	TakeProfit float64   `json:"take_profit"`
}

// Trade is one completed (or, at the end of a run, still open) position.
type Trade struct {
	Position
	ExitDate  time.Time  `json:"exit_date,omitempty"`
	ExitPrice float64    `json:"exit_price"`
	Return    float64    `json:"return"` // exit/entry - 1
	Reason    ExitReason `json:"reason"`
}

// Result is the outcome of one run.
type Result struct {
	Symbol string `json:"symbol"`
	// Rows are the indicator-complete rows the simulation walked.
	Rows   []model.IndicatorRow `json:"-"`
	Dates  []time.Time          `json:"dates"`
	Equity []float64            `json:"equity"`

	TotalReturn float64 `json:"total_return"`
	MaxDrawdown float64 `json:"max_drawdown"`

	Trades  []Trade `json:"trades"`
	WinRate float64 `json:"win_rate"`
	// Open is the position still held after the last row, marked at the
	// last close. It is not reflected in Equity.
	Open *Trade `json:"open,omitempty"`
}
