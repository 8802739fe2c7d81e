package indicator

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// IndicatorConfig specifies a single indicator to compute and the row
// fields its outputs land in.
type IndicatorConfig struct {
	Type   string // "SMA", "EMA", "RSI", "MACD", "BB", "ATR", "RET", "VOLCHG", "RVOL"
	Period int
	Fast   int     // MACD fast span
	Signal int     // MACD signal span
	K      float64 // Bollinger width in standard deviations
	Out    []model.Field
}

// Label names the configured indicator, e.g. "SMA_20".
func (c IndicatorConfig) Label() string {
	return c.Type + "_" + strconv.Itoa(c.Period)
}

// DefaultConfigs is the full feature set used for training and inference.
func DefaultConfigs() []IndicatorConfig {
	return []IndicatorConfig{
		{Type: "SMA", Period: 5, Out: []model.Field{model.FieldSMA5}},
		{Type: "SMA", Period: 10, Out: []model.Field{model.FieldSMA10}},
		{Type: "SMA", Period: 20, Out: []model.Field{model.FieldSMA20}},
		{Type: "RSI", Period: 14, Out: []model.Field{model.FieldRSI14}},
		{Type: "MACD", Period: 26, Fast: 12, Signal: 9, Out: []model.Field{model.FieldMACD, model.FieldMACDSignal}},
		{Type: "BB", Period: 20, K: 2, Out: []model.Field{model.FieldBBHigh, model.FieldBBLow}},
		{Type: "ATR", Period: 14, Out: []model.Field{model.FieldATR14}},
		{Type: "RET", Period: 1, Out: []model.Field{model.FieldRet1d}},
		{Type: "RET", Period: 5, Out: []model.Field{model.FieldRet5d}},
		{Type: "VOLCHG", Period: 1, Out: []model.Field{model.FieldVolChange}},
		{Type: "RVOL", Period: 10, Out: []model.Field{model.FieldRollingVol10}},
	}
}

// BacktestConfigs is the reduced set the ATR backtest needs.
func BacktestConfigs() []IndicatorConfig {
	return []IndicatorConfig{
		{Type: "SMA", Period: 20, Out: []model.Field{model.FieldSMA20}},
		{Type: "RSI", Period: 14, Out: []model.Field{model.FieldRSI14}},
		{Type: "ATR", Period: 14, Out: []model.Field{model.FieldATR14}},
	}
}

// ValidateConfigs checks that every config names a known type, has a
// positive period and the right number of output fields.
func ValidateConfigs(configs []IndicatorConfig) error {
	seen := make(map[model.Field]bool)
	for i, c := range configs {
		want, ok := outputCount[c.Type]
		if !ok {
			return fmt.Errorf("indicator %d: unknown type %q", i, c.Type)
		}
		if c.Period <= 0 {
			return fmt.Errorf("indicator %d (%s): period must be positive, got %d", i, c.Type, c.Period)
		}
		if c.Type == "MACD" && (c.Fast <= 0 || c.Signal <= 0 || c.Fast >= c.Period) {
			return fmt.Errorf("indicator %d (MACD): need 0 < fast < slow and signal > 0", i)
		}
		if len(c.Out) != want {
			return fmt.Errorf("indicator %d (%s): expected %d output fields, got %d", i, c.Type, want, len(c.Out))
		}
		for _, f := range c.Out {
			if f == model.FieldClose || f == model.FieldVolume {
				return fmt.Errorf("indicator %d (%s): cannot overwrite %s", i, c.Type, f)
			}
			if seen[f] {
				return fmt.Errorf("indicator %d (%s): field %s already assigned", i, c.Type, f)
			}
			seen[f] = true
		}
	}
	return nil
}

var outputCount = map[string]int{
	"SMA": 1, "EMA": 1, "RSI": 1, "MACD": 2, "BB": 2,
	"ATR": 1, "RET": 1, "VOLCHG": 1, "RVOL": 1,
}

// output reads one field from a bound indicator.
type output struct {
	field model.Field
	read  func() (float64, bool)
}

// binding is a live indicator plus the fields it writes.
type binding struct {
	ind     Indicator
	outputs []output
}

// Engine computes a configured set of indicators over one instrument's
// series at a time. Safe for concurrent Compute calls: state is built per call.
type Engine struct {
	configs []IndicatorConfig
	bind    func(IndicatorConfig) binding
}

// NewEngine creates an indicator engine with the given configs.
func NewEngine(configs []IndicatorConfig) *Engine {
	return &Engine{configs: configs, bind: createBinding}
}

var defaultEngine = NewEngine(DefaultConfigs())

// Compute runs the default indicator set over series.
func Compute(series []model.PricePoint) []model.IndicatorRow {
	return defaultEngine.Compute(series)
}

// Compute returns one IndicatorRow per input bar, in input order. Fields
// that have not warmed up are null. If an indicator panics, its fields are
// null for the whole series and the others are unaffected.
func (e *Engine) Compute(series []model.PricePoint) []model.IndicatorRow {
	rows := make([]model.IndicatorRow, len(series))
	for i, p := range series {
		rows[i] = model.NewIndicatorRow(p)
	}
	if len(series) == 0 {
		return rows
	}
	for _, cfg := range e.configs {
		e.run(series, rows, cfg)
	}
	return rows
}

func (e *Engine) run(series []model.PricePoint, rows []model.IndicatorRow, cfg IndicatorConfig) {
	defer func() {
		if r := recover(); r != nil {
			for i := range rows {
				for _, f := range cfg.Out {
					rows[i].Clear(f)
				}
			}
			slog.Warn("[indicator] computation failed, column degraded to null",
				"indicator", cfg.Label(), "symbol", series[0].Symbol, "panic", fmt.Sprint(r))
		}
	}()

	b := e.bind(cfg)

	for i, p := range series {
		b.ind.Update(p)
		for _, o := range b.outputs {
			if v, ok := o.read(); ok {
				rows[i].Set(o.field, v)
			}
		}
	}
}

// createBinding creates a fresh indicator instance for a config.
func createBinding(cfg IndicatorConfig) binding {
	single := func(ind Indicator) binding {
		return binding{ind: ind, outputs: []output{{
			field: cfg.Out[0],
			read:  func() (float64, bool) { return ind.Value(), ind.Ready() },
		}}}
	}

	switch cfg.Type {
	case "EMA":
		return single(NewEMA(cfg.Period))
	case "RSI":
		return single(NewRSI(cfg.Period))
	case "ATR":
		return single(NewATR(cfg.Period))
	case "RET":
		return single(NewPctChange(cfg.Period))
	case "VOLCHG":
		return single(NewPctChangeOf("VOLCHG", cfg.Period, VolumeSource))
	case "RVOL":
		return single(NewRollingVolatility(cfg.Period))
	case "MACD":
		m := NewMACD(cfg.Fast, cfg.Period, cfg.Signal)
		return binding{ind: m, outputs: []output{
			{field: cfg.Out[0], read: func() (float64, bool) { return m.Value(), m.Ready() }},
			{field: cfg.Out[1], read: func() (float64, bool) { return m.Signal(), m.SignalReady() }},
		}}
	case "BB":
		bb := NewBollinger(cfg.Period, cfg.K)
		return binding{ind: bb, outputs: []output{
			{field: cfg.Out[0], read: func() (float64, bool) { return bb.Upper(), bb.Ready() }},
			{field: cfg.Out[1], read: func() (float64, bool) { return bb.Lower(), bb.Ready() }},
		}}
	default:
		return single(NewSMA(cfg.Period)) // fallback
	}
}

