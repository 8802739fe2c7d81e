package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when the requested key is absent or expired.
var ErrCacheMiss = errors.New("redis: cache miss")

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int
}

// Reader serves cached predictions and delivers run notifications.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a new Redis Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
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

	log.Printf("[redis-reader] connected to %s", cfg.Addr)
	return &Reader{client: client}, nil
}

// ReadLatest returns the cached latest batch, or ErrCacheMiss.
func (r *Reader) ReadLatest(ctx context.Context) ([]model.PredictionRecord, error) {
	data, err := r.client.Get(ctx, LatestKey).Bytes()
	if err == goredis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", LatestKey, err)
	}
	var recs []model.PredictionRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", LatestKey, err)
	}
	return recs, nil
}

// ReadSymbol returns one instrument's cached prediction, or ErrCacheMiss.
func (r *Reader) ReadSymbol(ctx context.Context, symbol string) (model.PredictionRecord, error) {
	key := SymbolKey(symbol)
	data, err := r.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return model.PredictionRecord{}, ErrCacheMiss
	}
	if err != nil {
		return model.PredictionRecord{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	var rec model.PredictionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.PredictionRecord{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return rec, nil
}

// Subscribe listens on UpdatesChannel and calls onUpdate for every event.
// Blocks until ctx is cancelled.
func (r *Reader) Subscribe(ctx context.Context, onUpdate func(UpdateEvent)) error {
	pubsub := r.client.Subscribe(ctx, UpdatesChannel)
	defer pubsub.Close()

	// Wait for confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", UpdatesChannel, err)
	}
	log.Printf("[redis-reader] subscribed to %s", UpdatesChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeUpdate(msg.Payload)
			if err != nil {
				log.Printf("[redis-reader] %v", err)
				continue
			}
			onUpdate(ev)
		}
	}
}

// Client returns the underlying Redis client for health checks.
func (r *Reader) Client() *goredis.Client { return r.client }

// Close closes the Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}
