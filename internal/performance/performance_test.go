package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

func d(i int) time.Time { return time.Date(2024, 6, 3+i, 0, 0, 0, 0, time.UTC) }

func closes(symbol string, cs ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(cs))
	for i, c := range cs {
		out[i] = model.PricePoint{Symbol: symbol, Date: d(i), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	prices := map[string][]model.PricePoint{
		"TCS":  closes("TCS", 100, 102, 101, 101),
		"INFY": closes("INFY", 50, 49),
	}
	history := []model.PredictionRecord{
		{Date: d(0), Symbol: "TCS", PredictedDirection: model.Up, PredictedPrice: 101},   // 100→102 up: correct
		{Date: d(1), Symbol: "TCS", PredictedDirection: model.Up, PredictedPrice: 103},   // 102→101 down: wrong
		{Date: d(2), Symbol: "TCS", PredictedDirection: model.Down, PredictedPrice: 101}, // 101→101 flat is down: correct
		{Date: d(3), Symbol: "TCS", PredictedDirection: model.Up},                        // no next close yet
		{Date: d(0), Symbol: "INFY", PredictedDirection: model.Down, PredictedPrice: 48}, // 50→49 down: correct
		{Date: d(9), Symbol: "INFY", PredictedDirection: model.Up},                       // date not stored
		{Date: d(0), Symbol: "WIPRO", PredictedDirection: model.Up},                      // symbol not stored
	}

	rep := Evaluate(history, prices)

	assert.Equal(t, 4, rep.Evaluated)
	assert.Equal(t, 3, rep.Correct)
	assert.Equal(t, 3, rep.Pending)
	assert.InDelta(t, 0.75, rep.Accuracy, 1e-12)
	assert.InDelta(t, (1+2+0+1)/4.0, rep.MAE, 1e-12)

	require.Len(t, rep.BySymbol, 2)
	assert.Equal(t, "INFY", rep.BySymbol[0].Symbol)
	assert.Equal(t, 1.0, rep.BySymbol[0].Accuracy)
	assert.Equal(t, "TCS", rep.BySymbol[1].Symbol)
	assert.InDelta(t, 2.0/3.0, rep.BySymbol[1].Accuracy, 1e-12)

	require.Len(t, rep.Outcomes, 4)
	assert.Equal(t, model.Down, rep.Outcomes[2].ActualDirection)
	assert.Equal(t, 102.0, rep.Outcomes[0].NextClose)
}

func TestEvaluate_Empty(t *testing.T) {
	rep := Evaluate(nil, nil)
	assert.Zero(t, rep.Evaluated)
	assert.Zero(t, rep.Accuracy)
	assert.Empty(t, rep.BySymbol)
}
