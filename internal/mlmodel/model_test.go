package mlmodel

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharavanan171081/AI-Stock-App/internal/feature"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

func TestFitRegressor_RecoversLinearRelation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := make([][]float64, 200)
	y := make([]float64, 200)
	for i := range x {
		a, b := rng.Float64()*10, rng.Float64()*5
		x[i] = []float64{a, b}
		y[i] = 2*a + 3*b + 1
	}
	r, err := FitRegressor(x, y, 1e-6)
	require.NoError(t, err)

	got, err := r.Predict([]float64{4, 2})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got, 1e-3)
}

func TestFitRegressor_Errors(t *testing.T) {
	_, err := FitRegressor(nil, nil, 1)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = FitRegressor([][]float64{{1, 2}, {3}}, []float64{1, 2}, 1)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = FitRegressor([][]float64{{1}, {2, 3}}, []float64{1, 2}, 1)
	assert.ErrorIs(t, err, ErrDimension)

	r, err := FitRegressor([][]float64{{1}, {2}, {3}}, []float64{1, 2, 3}, 1)
	require.NoError(t, err)
	_, err = r.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestFitClassifier_RaggedRows(t *testing.T) {
	_, err := FitClassifier([][]float64{{1, 2}, {3}}, []float64{0, 1}, DefaultClassifierParams())
	assert.ErrorIs(t, err, ErrDimension)

	_, err = FitClassifier([][]float64{{1}, {2, 3}}, []float64{0, 1}, DefaultClassifierParams())
	assert.ErrorIs(t, err, ErrDimension)
}

func TestFitClassifier_SeparatesClasses(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	var x [][]float64
	var y []float64
	for i := 0; i < 300; i++ {
		v := rng.NormFloat64()
		x = append(x, []float64{v, rng.NormFloat64()})
		if v > 0 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	c, err := FitClassifier(x, y, DefaultClassifierParams())
	require.NoError(t, err)

	hi, err := c.ProbabilityUp([]float64{2, 0})
	require.NoError(t, err)
	lo, err := c.ProbabilityUp([]float64{-2, 0})
	require.NoError(t, err)
	assert.Greater(t, hi, 0.85)
	assert.Less(t, lo, 0.15)
}

func TestScaler_ConstantColumn(t *testing.T) {
	s := FitScaler([][]float64{{5, 1}, {5, 3}})
	assert.Equal(t, 1.0, s.Std[0])
	out := s.Transform([]float64{5, 2})
	assert.Equal(t, 0.0, out[0])
	assert.False(t, math.IsNaN(out[1]))
}

func series(symbol string, n int, start float64) []model.PricePoint {
	day0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]model.PricePoint, n)
	for i := range out {
		c := start + 0.5*float64(i) + 3*math.Sin(float64(i)/3)
		out[i] = model.PricePoint{
			Symbol: symbol, Date: day0.AddDate(0, 0, i),
			Open: c, High: c + 1, Low: c - 1, Close: c, Volume: int64(10000 + (i%7)*500),
		}
	}
	return out
}

func TestTrain_EndToEnd(t *testing.T) {
	table := feature.BuildTrainingTable(map[string][]model.PricePoint{
		"TCS":  series("TCS", 150, 3000),
		"INFY": series("INFY", 150, 1500),
	})
	b, rep, err := Train(table, 0.8)
	require.NoError(t, err)

	assert.Equal(t, table.Len(), rep.TrainRows+rep.TestRows)
	assert.Greater(t, rep.R2, 0.9, "next close is dominated by the current close")
	assert.GreaterOrEqual(t, rep.Accuracy, 0.0)
	assert.LessOrEqual(t, rep.Accuracy, 1.0)
	assert.Equal(t, feature.ColumnNames(feature.Columns()), b.Columns)
	require.NoError(t, b.CheckColumns(feature.ColumnNames(feature.Columns())))

	data, err := b.Marshal()
	require.NoError(t, err)
	back, err := Unmarshal(data)
	require.NoError(t, err)

	row := table.Rows[0].Features
	p1, _ := b.PredictPrice(row)
	p2, _ := back.PredictPrice(row)
	assert.InDelta(t, p1, p2, 1e-9)
	q1, _ := b.ProbabilityUp(row)
	q2, _ := back.ProbabilityUp(row)
	assert.InDelta(t, q1, q2, 1e-12)
}

func TestTrain_InsufficientRows(t *testing.T) {
	table := feature.BuildTrainingTable(map[string][]model.PricePoint{"A": series("A", 40, 100)})
	_, _, err := Train(table, 0.8)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestUnmarshal_Incomplete(t *testing.T) {
	_, err := Unmarshal([]byte(`{"version":1}`))
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

func TestCheckColumns_Mismatch(t *testing.T) {
	b := &Bundle{Columns: []string{"Close", "SMA_5"}}
	assert.ErrorIs(t, b.CheckColumns([]string{"Close"}), ErrDimension)
	assert.ErrorIs(t, b.CheckColumns([]string{"SMA_5", "Close"}), ErrDimension)
	assert.NoError(t, b.CheckColumns([]string{"Close", "SMA_5"}))
}
