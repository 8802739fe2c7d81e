// Package predict turns the latest feature row of each instrument into a
// next-day prediction using a price model and a direction model.
package predict

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sharavanan171081/AI-Stock-App/internal/feature"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// ErrNoRows is returned when no instrument has a complete feature row.
var ErrNoRows = errors.New("predict: no instrument has enough history for a feature row")

// Model maps a fixed-order feature vector to a next-close estimate and a
// probability of an up move.
type Model interface {
	PredictPrice(features []float64) (float64, error)
	ProbabilityUp(features []float64) (float64, error)
}

// Pipeline runs inference for a basket of instruments.
type Pipeline struct {
	model   Model
	featOpt []feature.Option
}

// New creates a pipeline. Feature options (workers, columns) are passed
// through to the feature builder.
func New(m Model, opts ...feature.Option) *Pipeline {
	return &Pipeline{model: m, featOpt: opts}
}

// Run produces one PredictionRecord per instrument with a complete feature
// row, sorted by symbol. Instruments the model fails on are logged and
// skipped; if every instrument fails the last error is returned.
func (p *Pipeline) Run(ctx context.Context, all map[string][]model.PricePoint, runTS time.Time) ([]model.PredictionRecord, error) {
	opts := append([]feature.Option{feature.WithContext(ctx)}, p.featOpt...)
	rows := feature.BuildInferenceRows(all, opts...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	out := make([]model.PredictionRecord, 0, len(rows))
	var lastErr error
	for _, r := range rows {
		rec, err := p.predictRow(r, runTS)
		if err != nil {
			log.Printf("[predict] %s: %v", r.Symbol, err)
			lastErr = err
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("predict: all %d instruments failed: %w", len(rows), lastErr)
	}
	return out, nil
}

func (p *Pipeline) predictRow(r model.FeatureRow, runTS time.Time) (model.PredictionRecord, error) {
	price, err := p.model.PredictPrice(r.Features)
	if err != nil {
		return model.PredictionRecord{}, fmt.Errorf("price model: %w", err)
	}
	prob, err := p.model.ProbabilityUp(r.Features)
	if err != nil {
		return model.PredictionRecord{}, fmt.Errorf("direction model: %w", err)
	}
	if prob < 0 || prob > 1 {
		return model.PredictionRecord{}, fmt.Errorf("direction model: probability %g outside [0,1]", prob)
	}
	return model.PredictionRecord{
		Date:               r.Date,
		Symbol:             r.Symbol,
		PredictedPrice:     round(price, 2),
		PredictedDirection: model.DirectionFromProbability(prob),
		ProbabilityUp:      round(prob, 4),
		RunTS:              runTS,
	}, nil
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// MergeHistory merges fresh records into history. A fresh record replaces
// any existing record with the same (date, symbol). The result is sorted by
// date then symbol.
func MergeHistory(history, fresh []model.PredictionRecord) []model.PredictionRecord {
	byKey := make(map[string]model.PredictionRecord, len(history)+len(fresh))
	for _, r := range history {
		byKey[r.Key()] = r
	}
	for _, r := range fresh {
		byKey[r.Key()] = r
	}
	out := make([]model.PredictionRecord, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
