package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

func openStore(t *testing.T) (*Writer, *Reader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signals.db")
	w, err := New(WriterConfig{DBPath: path})
	require.NoError(t, err)
	r, err := NewReader(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return w, r
}

func day(i int) time.Time { return time.Date(2024, 2, 1+i, 0, 0, 0, 0, time.UTC) }

func TestPrices_UpsertAndRead(t *testing.T) {
	w, r := openStore(t)
	ctx := context.Background()

	pts := []model.PricePoint{
		{Symbol: "TCS", Date: day(1), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Symbol: "TCS", Date: day(0), Open: 1, High: 2, Low: 0.5, Close: 1.2, Volume: 11},
		{Symbol: "INFY", Date: day(0), Open: 5, High: 6, Low: 4, Close: 5.5, Volume: 12},
	}
	require.NoError(t, w.WritePrices(ctx, pts))
	// same key overwritten
	require.NoError(t, w.WritePrices(ctx, []model.PricePoint{
		{Symbol: "TCS", Date: day(1), Open: 1, High: 2, Low: 0.5, Close: 1.9, Volume: 10},
	}))

	tcs, err := r.ReadSeries(ctx, "TCS", time.Time{})
	require.NoError(t, err)
	require.Len(t, tcs, 2)
	assert.True(t, tcs[0].Date.Equal(day(0)))
	assert.Equal(t, 1.9, tcs[1].Close)

	after, err := r.ReadSeries(ctx, "TCS", day(0))
	require.NoError(t, err)
	assert.Len(t, after, 1)

	all, err := r.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Len(t, all["INFY"], 1)

	syms, err := r.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "TCS"}, syms)

	last, err := w.LastDate(ctx, "TCS")
	require.NoError(t, err)
	assert.True(t, last.Equal(day(1)))
	none, err := w.LastDate(ctx, "NONE")
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestPredictions_LatestAndHistory(t *testing.T) {
	w, r := openStore(t)
	ctx := context.Background()
	runTS := time.Date(2024, 2, 2, 16, 0, 0, 0, time.UTC)

	first := []model.PredictionRecord{
		{Date: day(1), Symbol: "TCS", PredictedPrice: 100, PredictedDirection: model.Up, ProbabilityUp: 0.6, RunTS: runTS},
		{Date: day(1), Symbol: "INFY", PredictedPrice: 50, PredictedDirection: model.Down, ProbabilityUp: 0.4, RunTS: runTS},
	}
	require.NoError(t, w.ReplaceLatest(ctx, first))
	require.NoError(t, w.MergeHistory(ctx, first))

	second := []model.PredictionRecord{
		{Date: day(1), Symbol: "TCS", PredictedPrice: 101, PredictedDirection: model.Up, ProbabilityUp: 0.7, RunTS: runTS.Add(time.Hour)},
	}
	require.NoError(t, w.ReplaceLatest(ctx, second))
	require.NoError(t, w.MergeHistory(ctx, second))

	latest, err := r.ReadLatest(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 101.0, latest[0].PredictedPrice)

	hist, err := r.ReadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "INFY", hist[0].Symbol)
	assert.Equal(t, model.Down, hist[0].PredictedDirection)
	assert.Equal(t, 101.0, hist[1].PredictedPrice)
	assert.True(t, hist[1].RunTS.Equal(runTS.Add(time.Hour)))
}

func TestModelSnapshots(t *testing.T) {
	w, r := openStore(t)
	ctx := context.Background()

	_, _, err := r.ReadLatestModelJSON(ctx)
	assert.ErrorIs(t, err, ErrNoModel)

	var lastID int64
	for i := 0; i < keepModelSnapshots+3; i++ {
		lastID, err = w.SaveModelJSON(ctx, []byte(fmt.Sprintf(`{"n":%d}`, i)))
		require.NoError(t, err)
	}

	data, ver, err := r.ReadLatestModelJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, lastID, ver)
	assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, keepModelSnapshots+2), string(data))

	var n int
	require.NoError(t, r.DB().QueryRow(`SELECT COUNT(*) FROM model_snapshots`).Scan(&n))
	assert.Equal(t, keepModelSnapshots, n)
}

func TestDataVersionAndCounts(t *testing.T) {
	w, r := openStore(t)
	ctx := context.Background()

	v0, err := r.DataVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0", v0)

	require.NoError(t, w.WritePrices(ctx, []model.PricePoint{
		{Symbol: "TCS", Date: day(0), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}))
	v1, err := r.DataVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, v0, v1)

	c, err := r.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Symbols)
	assert.Equal(t, 1, c.Prices)
	assert.Equal(t, "2024-02-01", c.LastPriceOn)
	assert.Zero(t, c.ModelVer)
}
