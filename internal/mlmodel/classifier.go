package mlmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Classifier is an L2-regularised logistic regression on standardised
// features, fitted by full-batch gradient descent.
type Classifier struct {
	Scaler  *Scaler   `json:"scaler"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// ClassifierParams tunes the optimiser.
type ClassifierParams struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

// DefaultClassifierParams returns settings that converge on the daily
// feature set in well under a second.
func DefaultClassifierParams() ClassifierParams {
	return ClassifierParams{Epochs: 400, LearningRate: 0.1, L2: 1e-3}
}

// FitClassifier fits P(y=1|x). y must be 0 or 1.
func FitClassifier(x [][]float64, y []float64, params ClassifierParams) (*Classifier, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("fit classifier: %d rows, %d targets: %w", n, len(y), ErrDimension)
	}
	p, err := rowWidth(x)
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	sc := FitScaler(x)
	xs := make([][]float64, n)
	for i, row := range x {
		xs[i] = sc.Transform(row)
	}

	w := make([]float64, p)
	grad := make([]float64, p)
	b := 0.0
	for epoch := 0; epoch < params.Epochs; epoch++ {
		for j := range grad {
			grad[j] = params.L2 * w[j]
		}
		gb := 0.0
		for i, row := range xs {
			diff := sigmoid(b+floats.Dot(w, row)) - y[i]
			floats.AddScaled(grad, diff/float64(n), row)
			gb += diff / float64(n)
		}
		floats.AddScaled(w, -params.LearningRate, grad)
		b -= params.LearningRate * gb
	}
	return &Classifier{Scaler: sc, Weights: w, Bias: b}, nil
}

// ProbabilityUp returns P(y=1) for one feature vector.
func (c *Classifier) ProbabilityUp(row []float64) (float64, error) {
	if len(row) != len(c.Weights) || c.Scaler.dim() != len(row) {
		return 0, fmt.Errorf("classifier: got %d features, want %d: %w", len(row), len(c.Weights), ErrDimension)
	}
	return sigmoid(c.Bias + floats.Dot(c.Weights, c.Scaler.Transform(row))), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
