package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	err     error
	batches [][]model.PredictionRecord
}

func (f *fakePublisher) publish(_ context.Context, recs []model.PredictionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, recs)
	return nil
}

func (f *fakePublisher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func recs(symbols ...string) []model.PredictionRecord {
	runTS := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
	out := make([]model.PredictionRecord, 0, len(symbols))
	for i, s := range symbols {
		out = append(out, model.PredictionRecord{
			Date:               time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Symbol:             s,
			PredictedPrice:     100 + float64(i),
			PredictedDirection: model.Up,
			ProbabilityUp:      0.6,
			RunTS:              runTS.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}

func TestUpdateEvent_RoundTrip(t *testing.T) {
	ev := newUpdateEvent(recs("TCS.NS", "INFY.NS", "RELIANCE.NS"))
	assert.Equal(t, 3, ev.Count)
	assert.Equal(t, []string{"INFY.NS", "RELIANCE.NS", "TCS.NS"}, ev.Symbols)
	assert.Equal(t, time.Date(2024, 3, 1, 16, 0, 2, 0, time.UTC), ev.RunTS)

	payload, err := encodeUpdate(ev)
	require.NoError(t, err)
	got, err := decodeUpdate(payload)
	require.NoError(t, err)
	assert.Equal(t, ev.Count, got.Count)
	assert.Equal(t, ev.Symbols, got.Symbols)
	assert.True(t, ev.RunTS.Equal(got.RunTS))
}

func TestDecodeUpdate_Garbage(t *testing.T) {
	_, err := decodeUpdate("not json")
	assert.Error(t, err)
}

func TestSymbolKey(t *testing.T) {
	assert.Equal(t, "pred:latest:TCS.NS", SymbolKey("TCS.NS"))
}

func TestBufferedPublisher_PassThrough(t *testing.T) {
	fp := &fakePublisher{}
	cb, _ := newTestBreaker(2)
	bp := newBufferedPublisher(fp, cb)

	require.NoError(t, bp.PublishPredictions(context.Background(), recs("TCS.NS")))
	assert.Equal(t, 1, fp.count())
	assert.Zero(t, bp.PendingCount())

	require.NoError(t, bp.PublishPredictions(context.Background(), nil))
	assert.Equal(t, 1, fp.count())
}

func TestBufferedPublisher_HoldsLatestBatchOnFailure(t *testing.T) {
	fp := &fakePublisher{err: errFail}
	cb, _ := newTestBreaker(2)
	var buffered int
	bp := newBufferedPublisher(fp, cb)
	bp.OnBuffer = func() { buffered++ }

	require.NoError(t, bp.PublishPredictions(context.Background(), recs("TCS.NS")))
	require.NoError(t, bp.PublishPredictions(context.Background(), recs("TCS.NS", "INFY.NS")))
	// breaker is now open; this one is rejected without calling publish
	require.NoError(t, bp.PublishPredictions(context.Background(), recs("A.NS", "B.NS", "C.NS")))

	assert.Equal(t, StateOpen, cb.CurrentState())
	assert.Equal(t, 3, buffered)
	assert.Equal(t, 3, bp.PendingCount())
	assert.Zero(t, fp.count())
}

func TestBufferedPublisher_FlushAfterRecovery(t *testing.T) {
	fp := &fakePublisher{err: errFail}
	cb, clk := newTestBreaker(1)
	flushed := make(chan int, 2)
	bp := newBufferedPublisher(fp, cb)
	bp.OnFlush = func(n int) { flushed <- n }

	require.NoError(t, bp.PublishPredictions(context.Background(), recs("TCS.NS", "INFY.NS")))
	require.Equal(t, 2, bp.PendingCount())

	assert.ErrorIs(t, bp.Flush(context.Background()), ErrCircuitOpen)
	assert.Equal(t, 2, bp.PendingCount())

	fp.setErr(nil)
	clk.advance(time.Minute)
	require.NoError(t, bp.Flush(context.Background()))

	select {
	case n := <-flushed:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("flush callback not called")
	}
	assert.Zero(t, bp.PendingCount())
	assert.Eventually(t, func() bool { return fp.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestBufferedPublisher_NewBatchSupersedesHeld(t *testing.T) {
	fp := &fakePublisher{err: errFail}
	cb, clk := newTestBreaker(1)
	bp := newBufferedPublisher(fp, cb)

	require.NoError(t, bp.PublishPredictions(context.Background(), recs("OLD.NS")))
	require.Equal(t, 1, bp.PendingCount())

	fp.setErr(nil)
	clk.advance(time.Minute)
	require.NoError(t, bp.PublishPredictions(context.Background(), recs("NEW1.NS", "NEW2.NS")))

	assert.Zero(t, bp.PendingCount())
	// give the close-triggered flush a chance to run; it must find nothing
	time.Sleep(20 * time.Millisecond)
	fp.mu.Lock()
	defer fp.mu.Unlock()
	require.Len(t, fp.batches, 1)
	assert.Equal(t, "NEW1.NS", fp.batches[0][0].Symbol)
}
