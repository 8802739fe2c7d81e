package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sharavanan171081/AI-Stock-App/config"
	"github.com/sharavanan171081/AI-Stock-App/internal/logger"
	redisstore "github.com/sharavanan171081/AI-Stock-App/internal/store/redis"
	sqlitestore "github.com/sharavanan171081/AI-Stock-App/internal/store/sqlite"
)

// app holds what every subcommand opens.
type app struct {
	cfg    *config.Config
	writer *sqlitestore.Writer
	reader *sqlitestore.Reader
}

// openApp loads configuration and opens the SQLite store, creating its
// directory if needed.
func openApp(dbOverride string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbOverride != "" {
		cfg.SQLitePath = dbOverride
	}
	logger.Init("signalctl", logger.ParseLevel(cfg.LogLevel))

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		return nil, fmt.Errorf("open sqlite writer: %w", err)
	}
	r, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("open sqlite reader: %w", err)
	}
	return &app{cfg: cfg, writer: w, reader: r}, nil
}

// publisher returns a Redis writer when REDIS_ADDR is set and reachable.
// Predictions are stored either way, so an unreachable Redis only logs.
func (a *app) publisher() *redisstore.Writer {
	if !a.cfg.RedisEnabled() {
		return nil
	}
	w, err := redisstore.New(redisstore.WriterConfig{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err != nil {
		log.Printf("[signalctl] redis unavailable, skipping publish: %v", err)
		return nil
	}
	return w
}

func (a *app) Close() {
	a.reader.Close()
	a.writer.Close()
}
