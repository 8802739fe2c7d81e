package feature

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func trending(symbol string, n int, start float64) []model.PricePoint {
	out := make([]model.PricePoint, n)
	for i := range out {
		c := start + float64(i) + 2*math.Sin(float64(i))
		out[i] = model.PricePoint{
			Symbol: symbol, Date: day0.AddDate(0, 0, i),
			Open: c, High: c + 1, Low: c - 1, Close: c, Volume: int64(1000 + 10*i),
		}
	}
	return out
}

func TestColumns_Order(t *testing.T) {
	assert.Equal(t, []string{
		"Close", "SMA_5", "SMA_10", "SMA_20", "RSI_14", "MACD", "MACD_SIGNAL",
		"BB_HIGH", "BB_LOW", "ATR_14", "Ret_1d", "Ret_5d", "Vol_Change",
		"Rolling_Volatility_10", "Volume",
	}, ColumnNames(Columns()))
}

func TestBuildTrainingTable_NoNullsAndLabels(t *testing.T) {
	all := map[string][]model.PricePoint{
		"TCS":  trending("TCS", 60, 100),
		"INFY": trending("INFY", 50, 200),
	}
	table := BuildTrainingTable(all, WithWorkers(2))

	// MACD_SIGNAL is the last field to warm up (index 33); the final row has no label.
	assert.Equal(t, (60-1-33)+(50-1-33), table.Len())

	for _, r := range table.Rows {
		require.NotNil(t, r.Label)
		require.Len(t, r.Features, len(Columns()))
		for _, v := range r.Features {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}

	series := all["TCS"]
	for _, r := range table.Rows {
		if r.Symbol != "TCS" {
			continue
		}
		i := int(r.Date.Sub(day0).Hours() / 24)
		assert.Equal(t, series[i+1].Close, r.Label.NextClose)
		assert.Equal(t, series[i+1].Close > series[i].Close, r.Label.Direction == model.Up)
		assert.Equal(t, series[i].Close, r.Features[0])
	}
}

func TestBuildTrainingTable_ShortInstrumentContributesNothing(t *testing.T) {
	all := map[string][]model.PricePoint{"TINY": trending("TINY", 10, 100)}
	assert.Zero(t, BuildTrainingTable(all).Len())
}

func TestBuildInferenceRows_LastValidRowPerInstrument(t *testing.T) {
	all := map[string][]model.PricePoint{
		"WIPRO": trending("WIPRO", 40, 300),
		"TCS":   trending("TCS", 45, 100),
		"TINY":  trending("TINY", 10, 100),
	}
	rows := BuildInferenceRows(all)

	require.Len(t, rows, 2)
	assert.Equal(t, "TCS", rows[0].Symbol)
	assert.Equal(t, "WIPRO", rows[1].Symbol)
	assert.True(t, rows[0].Date.Equal(day0.AddDate(0, 0, 44)))
	assert.True(t, rows[1].Date.Equal(day0.AddDate(0, 0, 39)))
	assert.Nil(t, rows[0].Label)
	assert.Equal(t, all["TCS"][44].Close, rows[0].Close)
}

func TestBuildInferenceRows_SkipsTrailingNullRow(t *testing.T) {
	s := trending("SBIN", 40, 100)
	s[39].Volume = 0
	s = append(s, model.PricePoint{
		Symbol: "SBIN", Date: day0.AddDate(0, 0, 40),
		Open: 150, High: 151, Low: 149, Close: 150, Volume: 5000,
	})
	// Vol_Change on the final row divides by zero and is null.
	rows := BuildInferenceRows(map[string][]model.PricePoint{"SBIN": s})
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Date.Equal(day0.AddDate(0, 0, 39)))
	assert.Equal(t, 0.0, rows[0].Features[len(rows[0].Features)-1])
}

func TestBuildInferenceRows_Empty(t *testing.T) {
	assert.Empty(t, BuildInferenceRows(nil))
}

func TestSplit_Chronological(t *testing.T) {
	all := map[string][]model.PricePoint{
		"A": trending("A", 60, 100),
		"B": trending("B", 60, 200),
	}
	table := BuildTrainingTable(all)
	train, test := table.Split(0.8)

	assert.Equal(t, table.Len(), train.Len()+test.Len())
	require.NotZero(t, train.Len())
	require.NotZero(t, test.Len())

	_, lastTrain := train.DateRange()
	firstTest, _ := test.DateRange()
	assert.True(t, lastTrain.Before(firstTest), "train must end before test starts")
}

func TestTable_Targets(t *testing.T) {
	table := BuildTrainingTable(map[string][]model.PricePoint{"A": trending("A", 40, 100)})
	require.NotZero(t, table.Len())
	x, y, d := table.X(), table.NextClose(), table.Directions()
	assert.Len(t, x, table.Len())
	assert.Len(t, y, table.Len())
	for i, r := range table.Rows {
		assert.Equal(t, r.Label.NextClose, y[i])
		assert.Equal(t, float64(r.Label.Direction), d[i])
	}
}
