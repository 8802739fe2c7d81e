package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// LatestKey holds the full latest-prediction batch as one JSON array.
	LatestKey = "pred:latest"
	// UpdatesChannel receives an UpdateEvent after every published run.
	UpdatesChannel = "predictions:updated"

	symbolKeyPrefix  = LatestKey + ":"
	defaultLatestTTL = 36 * time.Hour
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // expiry for cached predictions; 0 = 36h
}

// UpdateEvent is the payload published on UpdatesChannel.
type UpdateEvent struct {
	RunTS   time.Time `json:"run_ts"`
	Count   int       `json:"count"`
	Symbols []string  `json:"symbols"`
}

// Writer caches the latest predictions and announces new runs.
type Writer struct {
	client *goredis.Client
	ttl    time.Duration
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultLatestTTL
	}
	log.Printf("[redis] connected to %s (ttl=%s)", cfg.Addr, ttl)
	return &Writer{client: client, ttl: ttl}, nil
}

// PublishPredictions writes the batch and per-symbol keys, then publishes
// an UpdateEvent, all in one MULTI/EXEC.
func (w *Writer) PublishPredictions(ctx context.Context, recs []model.PredictionRecord) error {
	return w.publish(ctx, recs)
}

func (w *Writer) publish(ctx context.Context, recs []model.PredictionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	batch, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshal predictions: %w", err)
	}
	event, err := encodeUpdate(newUpdateEvent(recs))
	if err != nil {
		return err
	}

	pipe := w.client.TxPipeline()
	pipe.Set(ctx, LatestKey, batch, w.ttl)
	for i := range recs {
		data, err := json.Marshal(recs[i])
		if err != nil {
			return fmt.Errorf("marshal %s: %w", recs[i].Symbol, err)
		}
		pipe.Set(ctx, SymbolKey(recs[i].Symbol), data, w.ttl)
	}
	pipe.Publish(ctx, UpdatesChannel, event)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish predictions: %w", err)
	}
	log.Printf("[redis] published %d predictions", len(recs))
	return nil
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}

// SymbolKey returns the per-instrument cache key.
func SymbolKey(symbol string) string {
	return symbolKeyPrefix + symbol
}

func newUpdateEvent(recs []model.PredictionRecord) UpdateEvent {
	ev := UpdateEvent{Count: len(recs), Symbols: make([]string, 0, len(recs))}
	for _, r := range recs {
		ev.Symbols = append(ev.Symbols, r.Symbol)
		if r.RunTS.After(ev.RunTS) {
			ev.RunTS = r.RunTS
		}
	}
	sort.Strings(ev.Symbols)
	return ev
}

func encodeUpdate(ev UpdateEvent) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("marshal update event: %w", err)
	}
	return string(data), nil
}

func decodeUpdate(payload string) (UpdateEvent, error) {
	var ev UpdateEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return UpdateEvent{}, fmt.Errorf("unmarshal update event: %w", err)
	}
	return ev, nil
}
