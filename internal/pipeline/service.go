// Package pipeline orchestrates the daily run: incremental price fetch,
// model load, inference, storage of latest predictions and history,
// cache publication and notification.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/feature"
	"github.com/sharavanan171081/AI-Stock-App/internal/logger"
	"github.com/sharavanan171081/AI-Stock-App/internal/marketdata/bus"
	"github.com/sharavanan171081/AI-Stock-App/internal/marketdata/fetch"
	"github.com/sharavanan171081/AI-Stock-App/internal/markethours"
	"github.com/sharavanan171081/AI-Stock-App/internal/metrics"
	"github.com/sharavanan171081/AI-Stock-App/internal/mlmodel"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
	"github.com/sharavanan171081/AI-Stock-App/internal/notification"
	"github.com/sharavanan171081/AI-Stock-App/internal/predict"
	sqlitestore "github.com/sharavanan171081/AI-Stock-App/internal/store/sqlite"
)

// Config controls what the daily run fetches and when it runs.
type Config struct {
	Instruments   []model.Instrument
	HistoryYears  int           // first-fetch window for instruments with no stored bars
	Workers       int           // fetch and feature fan-out
	RunAfterClose time.Duration // scheduled runs start this long after the NSE close
}

// Writer is the single writer used by the run.
type Writer interface {
	model.PriceWriter
	model.PredictionWriter
	LastDate(ctx context.Context, symbol string) (time.Time, error)
}

// ModelLoader loads the newest persisted model bundle.
type ModelLoader interface {
	ReadLatestModelJSON(ctx context.Context) ([]byte, int64, error)
}

// Deps are the collaborators of a Service. Publisher, Notifier, Metrics and
// Health are optional.
type Deps struct {
	Source    fetch.Source
	Prices    model.PriceReader
	Writer    Writer
	Models    ModelLoader
	Publisher model.PredictionPublisher
	Notifier  notification.Notifier
	Metrics   *metrics.Metrics
	Health    *metrics.HealthStatus
	Now       func() time.Time
}

// Summary describes one completed run.
type Summary struct {
	RunID        string                   `json:"run_id"`
	RunTS        time.Time                `json:"run_ts"`
	BarsFetched  int                      `json:"bars_fetched"`
	ModelVersion int64                    `json:"model_version"`
	Predictions  []model.PredictionRecord `json:"predictions"`
	Duration     time.Duration            `json:"duration"`
}

// Service is the daily-run orchestrator.
type Service struct {
	cfg  Config
	deps Deps
}

// New creates a Service. Missing Now defaults to time.Now.
func New(cfg Config, deps Deps) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.HistoryYears <= 0 {
		cfg.HistoryYears = 20
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{cfg: cfg, deps: deps}
}

// RunOnce performs a full daily run.
func (s *Service) RunOnce(ctx context.Context) (Summary, error) {
	start := s.deps.Now()
	sum := Summary{RunID: logger.NewRunID(), RunTS: start.Truncate(time.Second)}
	ctx = logger.WithRunID(ctx, sum.RunID)
	lg := logger.FromContext(ctx)
	lg.Info("[pipeline] run started", "instruments", len(s.cfg.Instruments))

	err := s.run(ctx, &sum)
	sum.Duration = time.Since(start)

	s.record(ctx, sum, err)
	if err != nil {
		lg.Error("[pipeline] run failed", "error", err, "duration", sum.Duration.String())
		return sum, err
	}
	lg.Info("[pipeline] run finished",
		"bars", sum.BarsFetched,
		"predictions", len(sum.Predictions),
		"model_version", sum.ModelVersion,
		"duration", sum.Duration.String(),
	)
	return sum, nil
}

func (s *Service) run(ctx context.Context, sum *Summary) error {
	n, err := s.Fetch(ctx)
	sum.BarsFetched = n
	if err != nil {
		return err
	}
	recs, version, err := s.Predict(ctx, sum.RunTS)
	sum.ModelVersion = version
	sum.Predictions = recs
	return err
}

// Fetch downloads bars after each instrument's last stored date (or the
// full history window) up to the last completed session, and stores them.
// Returns the number of bars written. Per-instrument failures are logged.
func (s *Service) Fetch(ctx context.Context) (int, error) {
	now := s.deps.Now()
	latest := markethours.LastCompletedSession(now)
	end := latest.AddDate(0, 0, 1)

	parts := make(map[string]model.Instrument, len(s.cfg.Instruments))
	starts := make(map[string]time.Time, len(s.cfg.Instruments))
	for _, in := range s.cfg.Instruments {
		last, err := s.deps.Writer.LastDate(ctx, in.Symbol)
		if err != nil {
			return 0, fmt.Errorf("last date %s: %w", in.Symbol, err)
		}
		if !last.IsZero() && !last.Before(latest) {
			continue
		}
		start := latest.AddDate(-s.cfg.HistoryYears, 0, 0)
		if !last.IsZero() {
			start = last.AddDate(0, 0, 1)
		}
		parts[in.Symbol] = in
		starts[in.Symbol] = start
	}
	if len(parts) == 0 {
		log.Printf("[pipeline] prices up to date through %s", latest.Format(model.DateLayout))
		return 0, nil
	}

	type fetched struct {
		points []model.PricePoint
		err    error
	}
	res := bus.Map(ctx, s.cfg.Workers, parts, func(sym string, in model.Instrument) fetched {
		t0 := time.Now()
		pts, err := s.deps.Source.FetchDaily(ctx, in, starts[sym], end)
		if m := s.deps.Metrics; m != nil {
			m.FetchDur.Observe(time.Since(t0).Seconds())
		}
		return fetched{pts, err}
	})

	var batch []model.PricePoint
	failed := 0
	for _, r := range res {
		err := r.Err
		if err == nil {
			err = r.Value.err
		}
		if err != nil {
			failed++
			log.Printf("[pipeline] fetch %s: %v", r.Key, err)
			continue
		}
		batch = append(batch, r.Value.points...)
	}
	if m := s.deps.Metrics; m != nil {
		m.FetchErrors.Add(float64(failed))
		m.BarsFetched.Add(float64(len(batch)))
	}
	if failed == len(parts) {
		return 0, fmt.Errorf("fetch: all %d instruments failed", failed)
	}

	t0 := time.Now()
	if err := s.deps.Writer.WritePrices(ctx, batch); err != nil {
		return 0, fmt.Errorf("write prices: %w", err)
	}
	if m := s.deps.Metrics; m != nil {
		m.SQLiteWriteDur.Observe(time.Since(t0).Seconds())
	}
	log.Printf("[pipeline] stored %d bars for %d instruments (%d failed)", len(batch), len(parts)-failed, failed)
	return len(batch), nil
}

// LoadModel returns the newest bundle and its version, or ErrNotTrained.
func (s *Service) LoadModel(ctx context.Context) (*mlmodel.Bundle, int64, error) {
	data, version, err := s.deps.Models.ReadLatestModelJSON(ctx)
	if errors.Is(err, sqlitestore.ErrNoModel) {
		return nil, 0, mlmodel.ErrNotTrained
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load model: %w", err)
	}
	b, err := mlmodel.Unmarshal(data)
	if err != nil {
		return nil, 0, err
	}
	if err := b.CheckColumns(feature.ColumnNames(feature.Columns())); err != nil {
		return nil, 0, err
	}
	b.Version = version
	return b, version, nil
}

// Predict runs inference over all stored prices and persists the result:
// latest predictions are replaced, history is merged, and the batch is
// published. A publish failure is logged, not returned.
func (s *Service) Predict(ctx context.Context, runTS time.Time) ([]model.PredictionRecord, int64, error) {
	bundle, version, err := s.LoadModel(ctx)
	if err != nil {
		return nil, 0, err
	}
	if m := s.deps.Metrics; m != nil {
		m.ModelR2.Set(bundle.Report.R2)
		m.ModelAccuracy.Set(bundle.Report.Accuracy)
	}
	all, err := s.deps.Prices.ReadAll(ctx)
	if err != nil {
		return nil, version, fmt.Errorf("read prices: %w", err)
	}
	all = s.universe(all)

	recs, err := predict.New(bundle, feature.WithWorkers(s.cfg.Workers)).Run(ctx, all, runTS)
	if err != nil {
		return nil, version, err
	}

	if err := s.deps.Writer.ReplaceLatest(ctx, recs); err != nil {
		return nil, version, fmt.Errorf("replace latest: %w", err)
	}
	if err := s.deps.Writer.MergeHistory(ctx, recs); err != nil {
		return nil, version, fmt.Errorf("merge history: %w", err)
	}
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishPredictions(ctx, recs); err != nil {
			log.Printf("[pipeline] publish: %v", err)
		}
	}
	return recs, version, nil
}

// universe keeps configured instruments only; stored symbols that were
// dropped from the configuration are not predicted.
func (s *Service) universe(all map[string][]model.PricePoint) map[string][]model.PricePoint {
	if len(s.cfg.Instruments) == 0 {
		return all
	}
	out := make(map[string][]model.PricePoint, len(s.cfg.Instruments))
	for _, in := range s.cfg.Instruments {
		if pts, ok := all[in.Symbol]; ok {
			out[in.Symbol] = pts
		}
	}
	return out
}

func (s *Service) record(ctx context.Context, sum Summary, err error) {
	if m := s.deps.Metrics; m != nil {
		m.RunDur.Observe(sum.Duration.Seconds())
		if err != nil {
			m.RunsTotal.WithLabelValues("error").Inc()
		} else {
			m.RunsTotal.WithLabelValues("ok").Inc()
			m.LastRunTimestamp.Set(float64(sum.RunTS.Unix()))
			m.PredictionsTotal.Add(float64(len(sum.Predictions)))
			m.Instruments.Set(float64(len(sum.Predictions)))
			m.ModelVersion.Set(float64(sum.ModelVersion))
		}
	}
	if h := s.deps.Health; h != nil {
		h.RecordRun(sum.RunTS, err)
		if err == nil {
			h.SetModelVersion(sum.ModelVersion)
		}
	}
	if s.deps.Notifier == nil {
		return
	}

	alert := notification.SummaryAlert(sum.Predictions, sum.RunTS)
	if err != nil {
		alert = notification.Alert{
			Level:   notification.AlertCritical,
			Title:   "Daily run failed",
			Message: fmt.Sprintf("run %s: %v", sum.RunID, err),
		}
	}
	if nerr := s.deps.Notifier.Send(ctx, alert); nerr != nil {
		log.Printf("[pipeline] notify: %v", nerr)
	}
}
