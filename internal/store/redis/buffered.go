package redis

import (
	"context"
	"log"
	"sync"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

type batchPublisher interface {
	publish(ctx context.Context, recs []model.PredictionRecord) error
}

// BufferedPublisher wraps a Writer with a circuit breaker.
// While Redis is unavailable the most recent batch is held locally and
// republished when the circuit closes again. Older held batches are
// superseded, since only the latest predictions are cached.
type BufferedPublisher struct {
	pub batchPublisher
	cb  *CircuitBreaker

	mu      sync.Mutex
	pending []model.PredictionRecord

	// Callbacks
	OnBuffer func()          // called when a batch is held (for metrics)
	OnFlush  func(count int) // called after a held batch is published
}

// NewBufferedPublisher creates a BufferedPublisher around w.
func NewBufferedPublisher(w *Writer, cb *CircuitBreaker) *BufferedPublisher {
	return newBufferedPublisher(w, cb)
}

func newBufferedPublisher(pub batchPublisher, cb *CircuitBreaker) *BufferedPublisher {
	bp := &BufferedPublisher{pub: pub, cb: cb}

	prevCallback := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prevCallback != nil {
			prevCallback(from, to)
		}
		if to == StateClosed {
			go bp.Flush(context.Background())
		}
	}
	return bp
}

// PublishPredictions publishes through the breaker. Failures are held for
// a later Flush and reported as nil; Redis is a cache, not the system of record.
func (bp *BufferedPublisher) PublishPredictions(ctx context.Context, recs []model.PredictionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	// recs supersede anything held
	bp.clear()
	err := bp.cb.Execute(func() error { return bp.pub.publish(ctx, recs) })
	if err != nil {
		log.Printf("[buffered-publisher] holding %d predictions: %v", len(recs), err)
		bp.hold(recs)
	}
	return nil
}

// Flush retries the held batch, if any. Returns the breaker's error when
// the retry fails; the batch stays held.
func (bp *BufferedPublisher) Flush(ctx context.Context) error {
	bp.mu.Lock()
	recs := bp.pending
	bp.pending = nil
	bp.mu.Unlock()
	if len(recs) == 0 {
		return nil
	}

	if err := bp.cb.Execute(func() error { return bp.pub.publish(ctx, recs) }); err != nil {
		bp.mu.Lock()
		if bp.pending == nil {
			bp.pending = recs
		}
		bp.mu.Unlock()
		return err
	}

	log.Printf("[buffered-publisher] flushed %d held predictions", len(recs))
	if bp.OnFlush != nil {
		bp.OnFlush(len(recs))
	}
	return nil
}

// PendingCount returns the size of the held batch.
func (bp *BufferedPublisher) PendingCount() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pending)
}

func (bp *BufferedPublisher) hold(recs []model.PredictionRecord) {
	cp := make([]model.PredictionRecord, len(recs))
	copy(cp, recs)

	bp.mu.Lock()
	bp.pending = cp
	bp.mu.Unlock()

	if bp.OnBuffer != nil {
		bp.OnBuffer()
	}
}

func (bp *BufferedPublisher) clear() {
	bp.mu.Lock()
	bp.pending = nil
	bp.mu.Unlock()
}
