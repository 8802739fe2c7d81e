package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple the pipeline and dashboard from concrete storage
// (SQLite, Redis, CSV). Each implementation satisfies one or more of them.

// PriceReader reads stored daily bars.
type PriceReader interface {
	// ReadSeries returns one symbol's bars ascending by date. afterDate zero = all.
	ReadSeries(ctx context.Context, symbol string, afterDate time.Time) ([]PricePoint, error)

	// ReadAll returns every stored symbol's bars, ascending by date per symbol.
	ReadAll(ctx context.Context) (map[string][]PricePoint, error)
}

// PriceWriter upserts daily bars keyed by (symbol, date).
type PriceWriter interface {
	WritePrices(ctx context.Context, points []PricePoint) error
}

// PredictionWriter stores the output of a prediction run.
type PredictionWriter interface {
	// ReplaceLatest swaps the latest-predictions table for recs.
	ReplaceLatest(ctx context.Context, recs []PredictionRecord) error

	// MergeHistory appends recs to history, keeping the latest write per (date, symbol).
	MergeHistory(ctx context.Context, recs []PredictionRecord) error
}

// PredictionReader reads latest predictions and history.
type PredictionReader interface {
	ReadLatest(ctx context.Context) ([]PredictionRecord, error)
	ReadHistory(ctx context.Context) ([]PredictionRecord, error)
}

// ModelStore persists versioned model snapshots as raw JSON.
type ModelStore interface {
	// SaveModelJSON persists a JSON-encoded model bundle and returns its version.
	SaveModelJSON(ctx context.Context, data []byte) (int64, error)

	// ReadLatestModelJSON loads the most recent bundle and its version.
	ReadLatestModelJSON(ctx context.Context) ([]byte, int64, error)
}

// PredictionPublisher pushes a finished run to fast readers (cache, pub/sub).
type PredictionPublisher interface {
	PublishPredictions(ctx context.Context, recs []PredictionRecord) error
}
