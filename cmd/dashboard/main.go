// cmd/dashboard serves the signal dashboard API and WebSocket feed over the
// SQLite store. With REDIS_ADDR set, latest predictions are read from Redis
// and new runs are pushed to connected clients as they are published.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/config"
	"github.com/sharavanan171081/AI-Stock-App/internal/dashboard"
	"github.com/sharavanan171081/AI-Stock-App/internal/logger"
	"github.com/sharavanan171081/AI-Stock-App/internal/metrics"
	redisstore "github.com/sharavanan171081/AI-Stock-App/internal/store/redis"
	sqlitestore "github.com/sharavanan171081/AI-Stock-App/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[dashboard] starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[dashboard] config: %v", err)
	}
	logger.Init("dashboard", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- SQLite (read-only side) ----
	store, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[dashboard] sqlite open failed: %v", err)
	}
	defer store.Close()

	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus(cfg.RedisEnabled())
	health.SetSQLiteOK(true)

	// ---- Redis (optional) ----
	var reader *redisstore.Reader
	if cfg.RedisEnabled() {
		reader, err = redisstore.NewReader(redisstore.ReaderConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Printf("[dashboard] WARNING: redis init failed: %v (serving from sqlite only)", err)
		} else {
			defer reader.Close()
			health.SetRedisConnected(true)
		}
	}

	var fast dashboard.LatestCache
	if reader != nil {
		fast = reader
		health.StartLivenessChecker(ctx, reader.Client(), store.DB(), 30*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, store.DB(), 30*time.Second)
	}

	hub := dashboard.NewHub(prom)
	handler := dashboard.NewHandler(store, fast, hub, prom, dashboard.Options{
		StopMult:     cfg.StopMult,
		TPMult:       cfg.TPMult,
		LookbackDays: cfg.LookbackDays,
	})

	// ---- Run notifications ----
	if reader != nil {
		go subscribeLoop(ctx, reader, handler)
	}

	srv := dashboard.NewServer(cfg.DashboardAddr, handler, health, nil)
	srv.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[dashboard] received %v, shutting down...", sig)

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Printf("[dashboard] %v", err)
	}
	log.Println("[dashboard] shutdown complete")
}

// subscribeLoop keeps the Redis subscription alive, retrying with backoff
// until ctx is cancelled.
func subscribeLoop(ctx context.Context, reader *redisstore.Reader, h *dashboard.Handler) {
	backoff := time.Second
	for {
		err := reader.Subscribe(ctx, h.OnPredictionsUpdated)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[dashboard] redis subscription lost: %v (retry in %s)", err, backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
