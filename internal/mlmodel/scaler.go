package mlmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardises each feature column to zero mean and unit variance
// using statistics from the training rows.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// rowWidth returns the common width of x, or ErrDimension if x is empty or
// ragged.
func rowWidth(x [][]float64) (int, error) {
	if len(x) == 0 {
		return 0, fmt.Errorf("no rows: %w", ErrDimension)
	}
	p := len(x[0])
	for i, row := range x {
		if len(row) != p {
			return 0, fmt.Errorf("row %d has %d features, want %d: %w", i, len(row), p, ErrDimension)
		}
	}
	return p, nil
}

// FitScaler computes per-column mean and sample standard deviation.
// Constant columns get a unit scale. x must be rectangular.
func FitScaler(x [][]float64) *Scaler {
	p, err := rowWidth(x)
	if err != nil {
		return &Scaler{}
	}
	s := &Scaler{Mean: make([]float64, p), Std: make([]float64, p)}
	col := make([]float64, len(x))
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		m, sd := stat.MeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		s.Mean[j], s.Std[j] = m, sd
	}
	return s
}

// Transform returns a standardised copy of row.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

func (s *Scaler) dim() int { return len(s.Mean) }
