// Package feature turns per-instrument price series into model-ready rows.
//
// Training mode emits every fully-populated row with its next-day label;
// inference mode emits only the latest fully-populated row per instrument.
// Instruments are processed independently on a worker pool and merged in
// symbol order.
package feature

import (
	"context"
	"log"
	"sort"

	"github.com/sharavanan171081/AI-Stock-App/internal/indicator"
	"github.com/sharavanan171081/AI-Stock-App/internal/marketdata/bus"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

var defaultColumns = []model.Field{
	model.FieldClose,
	model.FieldSMA5,
	model.FieldSMA10,
	model.FieldSMA20,
	model.FieldRSI14,
	model.FieldMACD,
	model.FieldMACDSignal,
	model.FieldBBHigh,
	model.FieldBBLow,
	model.FieldATR14,
	model.FieldRet1d,
	model.FieldRet5d,
	model.FieldVolChange,
	model.FieldRollingVol10,
	model.FieldVolume,
}

// Columns returns the fixed, ordered feature column list models are trained on.
func Columns() []model.Field {
	out := make([]model.Field, len(defaultColumns))
	copy(out, defaultColumns)
	return out
}

// ColumnNames returns Columns as their string names.
func ColumnNames(cols []model.Field) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.String()
	}
	return names
}

type options struct {
	columns []model.Field
	workers int
	engine  *indicator.Engine
	ctx     context.Context
}

// Option configures a build.
type Option func(*options)

// WithColumns overrides the feature column list.
func WithColumns(cols []model.Field) Option {
	return func(o *options) { o.columns = cols }
}

// WithWorkers bounds the number of instruments processed concurrently.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithEngine overrides the indicator engine.
func WithEngine(e *indicator.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithContext stops dispatching instruments once ctx is done.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

func buildOptions(opts []Option) options {
	o := options{
		columns: defaultColumns,
		engine:  indicator.NewEngine(indicator.DefaultConfigs()),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TrainingTable is the labelled training set, concatenated across instruments.
type TrainingTable struct {
	Columns []model.Field
	Rows    []model.FeatureRow
}

// Len returns the number of rows.
func (t TrainingTable) Len() int { return len(t.Rows) }

// BuildTrainingTable computes indicators per instrument, attaches the
// next-day close and direction label, and keeps only rows where every
// feature and the label are defined. The last row of each instrument has
// no label and is never included.
func BuildTrainingTable(all map[string][]model.PricePoint, opts ...Option) TrainingTable {
	o := buildOptions(opts)

	res := bus.Map(o.ctx, o.workers, all, func(symbol string, series []model.PricePoint) []model.FeatureRow {
		return trainingRows(symbol, o.engine.Compute(series), o.columns)
	})
	parts, errs := bus.Values(res)
	logSkipped("training", errs)

	table := TrainingTable{Columns: o.columns}
	for _, p := range parts {
		table.Rows = append(table.Rows, p...)
	}
	return table
}

func trainingRows(symbol string, rows []model.IndicatorRow, cols []model.Field) []model.FeatureRow {
	var out []model.FeatureRow
	for i := 0; i+1 < len(rows); i++ {
		vec, ok := rows[i].Vector(cols)
		if !ok {
			continue
		}
		next := rows[i+1].Close
		dir := model.Down
		if next > rows[i].Close {
			dir = model.Up
		}
		out = append(out, model.FeatureRow{
			Symbol:   symbol,
			Date:     rows[i].Date,
			Close:    rows[i].Close,
			Features: vec,
			Label:    &model.Label{NextClose: next, Direction: dir},
		})
	}
	return out
}

// BuildInferenceRows returns the chronologically last fully-populated row
// of each instrument, sorted by symbol. Instruments without such a row are
// omitted.
func BuildInferenceRows(all map[string][]model.PricePoint, opts ...Option) []model.FeatureRow {
	o := buildOptions(opts)

	res := bus.Map(o.ctx, o.workers, all, func(symbol string, series []model.PricePoint) *model.FeatureRow {
		return lastValidRow(symbol, o.engine.Compute(series), o.columns)
	})
	latest, errs := bus.Values(res)
	logSkipped("inference", errs)

	out := make([]model.FeatureRow, 0, len(latest))
	for _, r := range latest {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func lastValidRow(symbol string, rows []model.IndicatorRow, cols []model.Field) *model.FeatureRow {
	for i := len(rows) - 1; i >= 0; i-- {
		if vec, ok := rows[i].Vector(cols); ok {
			return &model.FeatureRow{
				Symbol:   symbol,
				Date:     rows[i].Date,
				Close:    rows[i].Close,
				Features: vec,
			}
		}
	}
	return nil
}

func logSkipped(mode string, errs []error) {
	for _, err := range errs {
		log.Printf("[feature] %s: instrument skipped: %v", mode, err)
	}
}
