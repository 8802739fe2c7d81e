// cmd/daily runs the prediction pipeline after every NSE close: fetch new
// bars, predict with the latest model, store latest predictions and
// history, publish to Redis and send the signal summary.
//
// Usage:
//
//	go run ./cmd/daily            # wait for the next scheduled run
//	go run ./cmd/daily --now      # run immediately, then keep the schedule
//	go run ./cmd/daily --once     # run once and exit
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/config"
	"github.com/sharavanan171081/AI-Stock-App/internal/logger"
	"github.com/sharavanan171081/AI-Stock-App/internal/marketdata/fetch"
	"github.com/sharavanan171081/AI-Stock-App/internal/markethours"
	"github.com/sharavanan171081/AI-Stock-App/internal/metrics"
	"github.com/sharavanan171081/AI-Stock-App/internal/notification"
	"github.com/sharavanan171081/AI-Stock-App/internal/pipeline"
	redisstore "github.com/sharavanan171081/AI-Stock-App/internal/store/redis"
	sqlitestore "github.com/sharavanan171081/AI-Stock-App/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	runNow := flag.Bool("now", false, "Run immediately before waiting for the schedule")
	once := flag.Bool("once", false, "Run once and exit")
	flag.Parse()

	// ---- Load config ----
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[daily] config: %v", err)
	}
	slogger := logger.Init("daily", logger.ParseLevel(cfg.LogLevel))
	slogger.Info("[daily] starting",
		"instruments", len(cfg.Instruments()),
		"redis", cfg.RedisEnabled(),
		"market", markethours.StatusString(time.Now()),
	)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus(cfg.RedisEnabled())
	var metricsSrv *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = metrics.NewServer(cfg.MetricsAddr, health, nil)
		metricsSrv.Start()
	}

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- SQLite ----
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	sqlWriter, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[daily] sqlite init failed: %v", err)
	}
	defer sqlWriter.Close()
	sqlReader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[daily] sqlite reader init failed: %v", err)
	}
	defer sqlReader.Close()
	health.SetSQLiteOK(true)
	log.Println("[daily] sqlite ready")

	deps := pipeline.Deps{
		Source:   fetch.NewYahooSource(),
		Prices:   sqlReader,
		Writer:   sqlWriter,
		Models:   sqlReader,
		Notifier: buildNotifier(cfg),
		Metrics:  prom,
		Health:   health,
	}

	// ---- Redis (optional) ----
	var redisWriter *redisstore.Writer
	if cfg.RedisEnabled() {
		redisWriter, err = redisstore.New(redisstore.WriterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Printf("[daily] WARNING: redis init failed: %v (continuing without redis)", err)
			health.SetRedisConnected(false)
		} else {
			defer redisWriter.Close()
			health.SetRedisConnected(true)
			deps.Publisher = newRedisPublisher(redisWriter, prom, health)
			log.Println("[daily] redis publisher ready")
		}
	}

	// ---- Periodic liveness checks ----
	if redisWriter != nil {
		health.StartLivenessChecker(ctx, redisWriter.Client(), sqlWriter.DB(), 30*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, sqlWriter.DB(), 30*time.Second)
	}

	svc := pipeline.New(pipeline.Config{
		Instruments:   cfg.Instruments(),
		HistoryYears:  cfg.HistoryYears,
		Workers:       cfg.Workers,
		RunAfterClose: cfg.RunAfterClose,
	}, deps)

	if *once {
		if _, err := svc.RunOnce(ctx); err != nil {
			shutdown(metricsSrv)
			log.Fatalf("[daily] run failed: %v", err)
		}
		shutdown(metricsSrv)
		return
	}

	if err := svc.RunScheduled(ctx, *runNow); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[daily] scheduler stopped: %v", err)
	}
	log.Println("[daily] shutting down...")
	shutdown(metricsSrv)
	log.Println("[daily] stopped")
}

// newRedisPublisher wraps w in a circuit breaker and a buffered publisher
// so a Redis outage holds the latest batch instead of failing the run.
func newRedisPublisher(w *redisstore.Writer, prom *metrics.Metrics, health *metrics.HealthStatus) *redisstore.BufferedPublisher {
	cb := redisstore.NewCircuitBreaker(3, 30*time.Second)
	cb.OnStateChange = func(from, to redisstore.State) {
		log.Printf("[daily] redis circuit breaker: %s → %s", from, to)
		prom.RedisCircuitBreakerState.Set(float64(to))
		if to == redisstore.StateOpen {
			prom.RedisCircuitBreakerTrips.Inc()
		}
		health.SetRedisConnected(to == redisstore.StateClosed)
	}
	bp := redisstore.NewBufferedPublisher(w, cb)
	bp.OnBuffer = func() { prom.RedisBufferedPublishes.Inc() }
	bp.OnFlush = func(n int) { log.Printf("[daily] flushed %d held predictions to redis", n) }
	return bp
}

// buildNotifier always logs and adds webhook and Telegram delivery when
// they are configured.
func buildNotifier(cfg *config.Config) notification.Notifier {
	multi := notification.Multi{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		multi = append(multi, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[daily] webhook notifications enabled")
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		multi = append(multi, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[daily] telegram notifications enabled")
	}
	return multi
}

func shutdown(metricsSrv *metrics.Server) {
	if metricsSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	metricsSrv.Stop(ctx)
}
