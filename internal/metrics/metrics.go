package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal services.
type Metrics struct {
	// Price ingestion
	FetchDur       prometheus.Histogram
	FetchErrors    prometheus.Counter
	BarsFetched    prometheus.Counter
	SQLiteWriteDur prometheus.Histogram

	// Daily run
	RunsTotal        *prometheus.CounterVec // labels: status=ok|error|skipped
	RunDur           prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
	PredictionsTotal prometheus.Counter
	Instruments      prometheus.Gauge

	// Model
	ModelVersion  prometheus.Gauge
	ModelR2       prometheus.Gauge
	ModelAccuracy prometheus.Gauge

	// Redis circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	RedisBufferedPublishes   prometheus.Counter

	// Dashboard
	HTTPRequests *prometheus.CounterVec   // labels: route, code
	HTTPDur      *prometheus.HistogramVec // labels: route
	CacheLoads   *prometheus.CounterVec   // labels: key
	WSClients    prometheus.Gauge
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg means the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signals_fetch_duration_seconds",
			Help:    "Price source fetch latency per instrument",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_fetch_errors_total",
			Help: "Instruments whose fetch failed after retries",
		}),
		BarsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_bars_fetched_total",
			Help: "Daily bars accepted after cleaning",
		}),
		SQLiteWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signals_sqlite_write_duration_seconds",
			Help:    "SQLite transaction latency",
			Buckets: prometheus.DefBuckets,
		}),

		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_daily_runs_total",
			Help: "Daily runs by outcome",
		}, []string{"status"}),
		RunDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signals_daily_run_duration_seconds",
			Help:    "End-to-end daily run latency",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_last_run_timestamp_seconds",
			Help: "Unix time of the last successful daily run",
		}),
		PredictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_predictions_total",
			Help: "Prediction records produced",
		}),
		Instruments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_instruments",
			Help: "Instruments in the last prediction run",
		}),

		ModelVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_model_version",
			Help: "Snapshot version of the loaded model bundle",
		}),
		ModelR2: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_model_test_r2",
			Help: "Price regressor R² on the held-out split",
		}),
		ModelAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_model_test_accuracy",
			Help: "Direction classifier accuracy on the held-out split",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker opened",
		}),
		RedisBufferedPublishes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_redis_buffered_publishes_total",
			Help: "Prediction batches held while Redis was unavailable",
		}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_http_requests_total",
			Help: "Dashboard HTTP requests",
		}, []string{"route", "code"}),
		HTTPDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signals_http_request_duration_seconds",
			Help:    "Dashboard HTTP latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		CacheLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_cache_loads_total",
			Help: "Dashboard cache misses that reloaded from storage",
		}, []string{"key"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_ws_clients",
			Help: "Connected dashboard WebSocket clients",
		}),
	}

	reg.MustRegister(
		m.FetchDur,
		m.FetchErrors,
		m.BarsFetched,
		m.SQLiteWriteDur,
		m.RunsTotal,
		m.RunDur,
		m.LastRunTimestamp,
		m.PredictionsTotal,
		m.Instruments,
		m.ModelVersion,
		m.ModelR2,
		m.ModelAccuracy,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.RedisBufferedPublishes,
		m.HTTPRequests,
		m.HTTPDur,
		m.CacheLoads,
		m.WSClients,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisEnabled   bool      `json:"redis_enabled"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	ModelVersion   int64     `json:"model_version"`
	LastRunAt      time.Time `json:"last_run_at"`
	LastRunErr     string    `json:"last_run_error"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(redisEnabled bool) *HealthStatus {
	return &HealthStatus{
		RedisEnabled: redisEnabled,
		StartedAt:    time.Now(),
	}
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetModelVersion(v int64) {
	h.mu.Lock()
	h.ModelVersion = v
	h.mu.Unlock()
}

// RecordRun stores the outcome of a daily run.
func (h *HealthStatus) RecordRun(at time.Time, err error) {
	h.mu.Lock()
	h.LastRunAt = at
	h.LastRunErr = ""
	if err != nil {
		h.LastRunErr = err.Error()
	}
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Either client may be nil.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	check := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if rdb != nil {
			h.CheckRedis(probeCtx, rdb)
		}
		if sqlDB != nil {
			h.CheckSQLite(probeCtx, sqlDB)
		}
	}
	check()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
}

// Status is the /healthz response body.
type Status struct {
	Status          string  `json:"status"`
	Uptime          string  `json:"uptime"`
	SQLiteOK        bool    `json:"sqlite_ok"`
	SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
	RedisEnabled    bool    `json:"redis_enabled"`
	RedisConnected  bool    `json:"redis_connected"`
	RedisLatencyMs  float64 `json:"redis_latency_ms"`
	ModelVersion    int64   `json:"model_version"`
	LastRunAt       string  `json:"last_run_at,omitempty"`
	LastRunError    string  `json:"last_run_error,omitempty"`
	LastCheckAt     string  `json:"last_check_at"`
}

// Snapshot returns the current status and its HTTP code.
// SQLite down is unhealthy; an enabled Redis that is down is degraded.
func (h *HealthStatus) Snapshot() (Status, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall, code := "healthy", http.StatusOK
	switch {
	case !h.SQLiteOK:
		overall, code = "unhealthy", http.StatusServiceUnavailable
	case h.RedisEnabled && !h.RedisConnected:
		overall, code = "degraded", http.StatusServiceUnavailable
	}

	st := Status{
		Status:          overall,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		ModelVersion:    h.ModelVersion,
		LastRunError:    h.LastRunErr,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}
	if !h.LastRunAt.IsZero() {
		st.LastRunAt = h.LastRunAt.Format(time.RFC3339)
	}
	return st, code
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st, code := h.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(st)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server. gatherer nil means the
// default Prometheus registry.
func NewServer(addr string, health *HealthStatus, gatherer prometheus.Gatherer) *Server {
	handler := promhttp.Handler()
	if gatherer != nil {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
