// Package mlmodel trains and serves the two next-day models: a price
// regressor predicting the next close and a direction classifier
// predicting the probability that the next close is higher.
package mlmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sharavanan171081/AI-Stock-App/internal/feature"
)

var (
	// ErrNotTrained is returned when no model bundle is available.
	ErrNotTrained = errors.New("mlmodel: models not trained; run `signalctl train` first")
	// ErrDimension is returned when a feature vector has the wrong width.
	ErrDimension = errors.New("mlmodel: feature dimension mismatch")
	// ErrInsufficientData is returned when too few rows are available to fit.
	ErrInsufficientData = errors.New("mlmodel: insufficient training rows")
)

// MinTrainRows is the fewest training-split rows Train accepts.
const MinTrainRows = 30

// DefaultSplit is the chronological train fraction.
const DefaultSplit = 0.8

// Bundle is the persisted pair of models plus the column list they expect.
type Bundle struct {
	Version   int64       `json:"version"`
	TrainedAt time.Time   `json:"trained_at"`
	Columns   []string    `json:"columns"`
	Price     *Regressor  `json:"price"`
	Direction *Classifier `json:"direction"`
	Report    Report      `json:"report"`
}

// Report summarises a training run.
type Report struct {
	TrainRows int       `json:"train_rows"`
	TestRows  int       `json:"test_rows"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	R2        float64   `json:"r2"`       // price regressor, test split
	Accuracy  float64   `json:"accuracy"` // direction classifier, test split
}

// Train fits both models on the earliest split fraction of table and
// scores them on the remainder.
func Train(table feature.TrainingTable, split float64) (*Bundle, Report, error) {
	if split <= 0 || split >= 1 {
		split = DefaultSplit
	}
	train, test := table.Split(split)
	if train.Len() < MinTrainRows {
		return nil, Report{}, fmt.Errorf("train: %d rows: %w", train.Len(), ErrInsufficientData)
	}

	price, err := FitRegressor(train.X(), train.NextClose(), 1.0)
	if err != nil {
		return nil, Report{}, fmt.Errorf("train price model: %w", err)
	}
	dir, err := FitClassifier(train.X(), train.Directions(), DefaultClassifierParams())
	if err != nil {
		return nil, Report{}, fmt.Errorf("train direction model: %w", err)
	}

	b := &Bundle{
		TrainedAt: time.Now().UTC(),
		Columns:   feature.ColumnNames(table.Columns),
		Price:     price,
		Direction: dir,
	}

	rep := Report{TrainRows: train.Len(), TestRows: test.Len()}
	rep.From, rep.To = table.DateRange()
	if test.Len() > 0 {
		rep.R2, rep.Accuracy, err = b.Score(test)
		if err != nil {
			return nil, Report{}, err
		}
	}
	b.Report = rep
	return b, rep, nil
}

// Score returns R² of the price model and accuracy of the direction model on t.
func (b *Bundle) Score(t feature.TrainingTable) (r2, accuracy float64, err error) {
	if t.Len() == 0 {
		return 0, 0, nil
	}
	est := make([]float64, t.Len())
	correct := 0
	for i, row := range t.Rows {
		if est[i], err = b.Price.Predict(row.Features); err != nil {
			return 0, 0, err
		}
		p, err := b.Direction.ProbabilityUp(row.Features)
		if err != nil {
			return 0, 0, err
		}
		if (p >= 0.5) == (row.Label.Direction == 1) {
			correct++
		}
	}
	r2 = stat.RSquaredFrom(est, t.NextClose(), nil)
	return r2, float64(correct) / float64(t.Len()), nil
}

// PredictPrice returns the predicted next close.
func (b *Bundle) PredictPrice(features []float64) (float64, error) {
	return b.Price.Predict(features)
}

// ProbabilityUp returns the probability that the next close is higher.
func (b *Bundle) ProbabilityUp(features []float64) (float64, error) {
	return b.Direction.ProbabilityUp(features)
}

// CheckColumns verifies the bundle was trained on cols, in order.
func (b *Bundle) CheckColumns(cols []string) error {
	if len(cols) != len(b.Columns) {
		return fmt.Errorf("bundle has %d columns, pipeline has %d: %w", len(b.Columns), len(cols), ErrDimension)
	}
	for i := range cols {
		if cols[i] != b.Columns[i] {
			return fmt.Errorf("column %d: bundle %q, pipeline %q: %w", i, b.Columns[i], cols[i], ErrDimension)
		}
	}
	return nil
}

// Marshal encodes the bundle as JSON.
func (b *Bundle) Marshal() ([]byte, error) {
	return json.Marshal(b)
}

// Unmarshal decodes a bundle and checks it is complete.
func Unmarshal(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode model bundle: %w", err)
	}
	if b.Price == nil || b.Direction == nil || b.Price.Scaler == nil || b.Direction.Scaler == nil {
		return nil, fmt.Errorf("decode model bundle: incomplete: %w", ErrNotTrained)
	}
	return &b, nil
}
