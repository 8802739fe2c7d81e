package mlmodel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Regressor is an L2-regularised linear model on standardised features.
type Regressor struct {
	Scaler  *Scaler   `json:"scaler"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Lambda  float64   `json:"lambda"`
}

// FitRegressor solves (XᵀX + λI)w = Xᵀ(y - ȳ) on standardised X.
func FitRegressor(x [][]float64, y []float64, lambda float64) (*Regressor, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("fit regressor: %d rows, %d targets: %w", n, len(y), ErrDimension)
	}
	p, err := rowWidth(x)
	if err != nil {
		return nil, fmt.Errorf("fit regressor: %w", err)
	}
	sc := FitScaler(x)

	data := make([]float64, 0, n*p)
	for _, row := range x {
		data = append(data, sc.Transform(row)...)
	}
	xs := mat.NewDense(n, p, data)

	yMean := stat.Mean(y, nil)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - yMean
	}

	xtx := mat.NewSymDense(p, nil)
	xtx.SymOuterK(1, xs.T())
	for i := 0; i < p; i++ {
		xtx.SetSym(i, i, xtx.At(i, i)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(xs.T(), mat.NewVecDense(n, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(xtx); !ok {
		return nil, fmt.Errorf("fit regressor: normal equations not positive definite (lambda=%g)", lambda)
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &xty); err != nil {
		return nil, fmt.Errorf("fit regressor: solve: %w", err)
	}

	weights := make([]float64, p)
	for i := range weights {
		weights[i] = w.AtVec(i)
	}
	return &Regressor{Scaler: sc, Weights: weights, Bias: yMean, Lambda: lambda}, nil
}

// Predict returns the model output for one feature vector.
func (r *Regressor) Predict(row []float64) (float64, error) {
	if len(row) != len(r.Weights) || r.Scaler.dim() != len(row) {
		return 0, fmt.Errorf("regressor: got %d features, want %d: %w", len(row), len(r.Weights), ErrDimension)
	}
	return r.Bias + floats.Dot(r.Weights, r.Scaler.Transform(row)), nil
}
