// Package dashboard serves the signal dashboard API: latest predictions,
// indicator charts, prediction accuracy, backtests, CSV downloads and an
// admin status page, plus a WebSocket feed of new prediction runs.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sharavanan171081/AI-Stock-App/internal/backtest"
	"github.com/sharavanan171081/AI-Stock-App/internal/cache"
	"github.com/sharavanan171081/AI-Stock-App/internal/indicator"
	"github.com/sharavanan171081/AI-Stock-App/internal/markethours"
	"github.com/sharavanan171081/AI-Stock-App/internal/metrics"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
	"github.com/sharavanan171081/AI-Stock-App/internal/performance"
	redisstore "github.com/sharavanan171081/AI-Stock-App/internal/store/redis"
	sqlitestore "github.com/sharavanan171081/AI-Stock-App/internal/store/sqlite"
)

// Store is the read side the dashboard needs.
type Store interface {
	model.PriceReader
	model.PredictionReader
	Symbols(ctx context.Context) ([]string, error)
	DataVersion(ctx context.Context) (string, error)
	Counts(ctx context.Context) (sqlitestore.Counts, error)
}

// LatestCache serves the latest predictions faster than the store.
type LatestCache interface {
	ReadLatest(ctx context.Context) ([]model.PredictionRecord, error)
}

// Options tunes backtest defaults.
type Options struct {
	StopMult     float64
	TPMult       float64
	LookbackDays int
}

// Handler implements the dashboard routes.
type Handler struct {
	store Store
	fast  LatestCache
	hub   *Hub
	prom  *metrics.Metrics
	opts  Options
	now   func() time.Time

	prices *cache.Memo[map[string][]model.PricePoint]
	preds  *cache.Memo[[]model.PredictionRecord]
	rows   *cache.Memo[[]model.IndicatorRow]
	perf   *cache.Memo[performance.Report]
}

// NewHandler creates a Handler. fast, hub and prom may be nil.
func NewHandler(store Store, fast LatestCache, hub *Hub, prom *metrics.Metrics, opts Options) *Handler {
	if opts.StopMult <= 0 {
		opts.StopMult = backtest.DefaultStopMultiplier
	}
	if opts.TPMult <= 0 {
		opts.TPMult = backtest.DefaultTakeProfitMultiplier
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 365
	}
	return &Handler{
		store:  store,
		fast:   fast,
		hub:    hub,
		prom:   prom,
		opts:   opts,
		now:    time.Now,
		prices: cache.NewMemo[map[string][]model.PricePoint](),
		preds:  cache.NewMemo[[]model.PredictionRecord](),
		rows:   cache.NewMemo[[]model.IndicatorRow](),
		perf:   cache.NewMemo[performance.Report](),
	}
}

// RegisterRoutes mounts the API on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/symbols", h.Symbols)
	api.GET("/predictions", h.LatestPredictions)
	api.GET("/predictions/history", h.PredictionHistory)
	api.GET("/charts/:symbol", h.Chart)
	api.GET("/performance", h.Performance)
	api.GET("/backtest/:symbol", h.Backtest)
	api.GET("/downloads/:file", h.Download)
	api.GET("/admin", h.Admin)
	if h.hub != nil {
		e.GET("/ws", h.hub.HandleWS)
	}
}

// OnPredictionsUpdated drops cached prediction data and pushes the event
// to WebSocket clients. It is the Redis subscription callback.
func (h *Handler) OnPredictionsUpdated(ev redisstore.UpdateEvent) {
	h.preds.InvalidateAll()
	h.perf.InvalidateAll()
	log.Printf("[dashboard] predictions updated: %d symbols at %s", ev.Count, ev.RunTS.Format(time.RFC3339))
	if h.hub != nil {
		if err := h.hub.Broadcast("predictions_updated", ev); err != nil {
			log.Printf("[dashboard] broadcast: %v", err)
		}
	}
}

// ── cached loads ──

func (h *Handler) version(ctx context.Context) (string, error) {
	v, err := h.store.DataVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("data version: %w", err)
	}
	return v, nil
}

func (h *Handler) countLoad(key string) {
	if h.prom != nil {
		h.prom.CacheLoads.WithLabelValues(key).Inc()
	}
}

func (h *Handler) loadPrices(ctx context.Context) (map[string][]model.PricePoint, error) {
	v, err := h.version(ctx)
	if err != nil {
		return nil, err
	}
	return h.prices.Get("all", v, func() (map[string][]model.PricePoint, error) {
		h.countLoad("prices")
		return h.store.ReadAll(ctx)
	})
}

func (h *Handler) loadSeries(ctx context.Context, symbol string) ([]model.PricePoint, error) {
	all, err := h.loadPrices(ctx)
	if err != nil {
		return nil, err
	}
	return all[symbol], nil
}

func (h *Handler) loadLatest(ctx context.Context) ([]model.PredictionRecord, error) {
	if h.fast != nil {
		recs, err := h.fast.ReadLatest(ctx)
		if err == nil && len(recs) > 0 {
			return recs, nil
		}
		if err != nil && !errors.Is(err, redisstore.ErrCacheMiss) {
			log.Printf("[dashboard] latest cache: %v (falling back to store)", err)
		}
	}
	v, err := h.version(ctx)
	if err != nil {
		return nil, err
	}
	return h.preds.Get("latest", v, func() ([]model.PredictionRecord, error) {
		h.countLoad("latest")
		return h.store.ReadLatest(ctx)
	})
}

func (h *Handler) loadHistory(ctx context.Context) ([]model.PredictionRecord, error) {
	v, err := h.version(ctx)
	if err != nil {
		return nil, err
	}
	return h.preds.Get("history", v, func() ([]model.PredictionRecord, error) {
		h.countLoad("history")
		return h.store.ReadHistory(ctx)
	})
}

func (h *Handler) loadRows(ctx context.Context, symbol string) ([]model.IndicatorRow, error) {
	v, err := h.version(ctx)
	if err != nil {
		return nil, err
	}
	return h.rows.Get(symbol, v, func() ([]model.IndicatorRow, error) {
		h.countLoad("indicators")
		series, err := h.loadSeries(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return indicator.Compute(series), nil
	})
}

func (h *Handler) loadPerformance(ctx context.Context) (performance.Report, error) {
	v, err := h.version(ctx)
	if err != nil {
		return performance.Report{}, err
	}
	return h.perf.Get("all", v, func() (performance.Report, error) {
		h.countLoad("performance")
		hist, err := h.loadHistory(ctx)
		if err != nil {
			return performance.Report{}, err
		}
		prices, err := h.loadPrices(ctx)
		if err != nil {
			return performance.Report{}, err
		}
		return performance.Evaluate(hist, prices), nil
	})
}

// ── handlers ──

// Symbols lists stored instruments.
func (h *Handler) Symbols(c echo.Context) error {
	syms, err := h.store.Symbols(c.Request().Context())
	if err != nil {
		return internalErrorResponse(c, err)
	}
	return successResponse(c, syms)
}

// PredictionsView is the latest-predictions page payload.
type PredictionsView struct {
	Date        string                   `json:"date,omitempty"`
	RunTS       *time.Time               `json:"run_ts,omitempty"`
	Up          int                      `json:"up"`
	Down        int                      `json:"down"`
	Predictions []model.PredictionRecord `json:"predictions"`
}

type predictionsQuery struct {
	Direction string `query:"direction" validate:"omitempty,oneof=UP DOWN"`
	Sort      string `query:"sort" validate:"omitempty,oneof=symbol probability price"`
}

// LatestPredictions returns the latest run, optionally filtered by direction
// and sorted by symbol (default), probability (desc) or price (desc).
func (h *Handler) LatestPredictions(c echo.Context) error {
	var q predictionsQuery
	if bad := bindAndValidate(c, &q); bad != nil {
		return badRequestResponse(c, bad)
	}
	recs, err := h.loadLatest(c.Request().Context())
	if err != nil {
		return internalErrorResponse(c, err)
	}

	view := PredictionsView{Predictions: make([]model.PredictionRecord, 0, len(recs))}
	for i := range recs {
		r := recs[i]
		if r.PredictedDirection == model.Up {
			view.Up++
		} else {
			view.Down++
		}
		if view.RunTS == nil || r.RunTS.After(*view.RunTS) {
			view.RunTS = &recs[i].RunTS
		}
		if r.Date.Format(model.DateLayout) > view.Date {
			view.Date = r.Date.Format(model.DateLayout)
		}
		if q.Direction != "" && r.PredictedDirection.String() != q.Direction {
			continue
		}
		view.Predictions = append(view.Predictions, r)
	}
	if view.RunTS != nil && view.RunTS.IsZero() {
		view.RunTS = nil
	}
	sortPredictions(view.Predictions, q.Sort)
	return successResponse(c, view)
}

func sortPredictions(recs []model.PredictionRecord, by string) {
	switch by {
	case "probability":
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].ProbabilityUp > recs[j].ProbabilityUp })
	case "price":
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].PredictedPrice > recs[j].PredictedPrice })
	default:
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Symbol < recs[j].Symbol })
	}
}

type historyQuery struct {
	Symbol string `query:"symbol"`
}

// PredictionHistory returns stored history, optionally for one symbol.
func (h *Handler) PredictionHistory(c echo.Context) error {
	var q historyQuery
	if bad := bindAndValidate(c, &q); bad != nil {
		return badRequestResponse(c, bad)
	}
	hist, err := h.loadHistory(c.Request().Context())
	if err != nil {
		return internalErrorResponse(c, err)
	}
	sym := normSymbol(q.Symbol)
	if sym == "" {
		return successResponse(c, hist)
	}
	out := make([]model.PredictionRecord, 0)
	for _, r := range hist {
		if r.Symbol == sym {
			out = append(out, r)
		}
	}
	return successResponse(c, out)
}

// ChartPoint is one bar plus its defined indicator values.
type ChartPoint struct {
	Date       string             `json:"date"`
	Open       float64            `json:"open"`
	High       float64            `json:"high"`
	Low        float64            `json:"low"`
	Close      float64            `json:"close"`
	Volume     int64              `json:"volume"`
	Indicators map[string]float64 `json:"indicators"`
}

type chartQuery struct {
	Symbol   string `param:"symbol" validate:"required"`
	Lookback int    `query:"lookback" validate:"min=30,max=5000"`
}

// Chart returns the last lookback rows (30..5000, default 365) of one
// symbol's indicator table. Indicators are computed on the full series
// so warm-up is not repeated inside the window.
func (h *Handler) Chart(c echo.Context) error {
	q := chartQuery{Lookback: 365}
	if bad := bindAndValidate(c, &q); bad != nil {
		return badRequestResponse(c, bad)
	}
	sym := normSymbol(q.Symbol)
	rows, err := h.loadRows(c.Request().Context(), sym)
	if err != nil {
		return internalErrorResponse(c, err)
	}
	if len(rows) == 0 {
		return notFoundResponse(c, "no prices for "+sym)
	}
	if len(rows) > q.Lookback {
		rows = rows[len(rows)-q.Lookback:]
	}
	out := make([]ChartPoint, len(rows))
	for i := range rows {
		r := &rows[i]
		out[i] = ChartPoint{
			Date:       r.Date.Format(model.DateLayout),
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			Volume:     r.Volume,
			Indicators: r.Values(),
		}
	}
	return successResponse(c, map[string]interface{}{"symbol": sym, "rows": out})
}

type performanceQuery struct {
	Symbol string `query:"symbol"`
}

// Performance returns accuracy of past predictions against realised prices.
func (h *Handler) Performance(c echo.Context) error {
	var q performanceQuery
	if bad := bindAndValidate(c, &q); bad != nil {
		return badRequestResponse(c, bad)
	}
	rep, err := h.loadPerformance(c.Request().Context())
	if err != nil {
		return internalErrorResponse(c, err)
	}
	sym := normSymbol(q.Symbol)
	if sym == "" {
		return successResponse(c, rep)
	}
	for _, s := range rep.BySymbol {
		if s.Symbol == sym {
			outcomes := make([]performance.Outcome, 0)
			for _, o := range rep.Outcomes {
				if o.Symbol == sym {
					outcomes = append(outcomes, o)
				}
			}
			return successResponse(c, map[string]interface{}{"summary": s, "outcomes": outcomes})
		}
	}
	return notFoundResponse(c, "no evaluated predictions for "+sym)
}

type backtestQuery struct {
	Symbol   string  `param:"symbol" validate:"required"`
	Lookback int     `query:"lookback" validate:"min=100,max=5000"`
	StopMult float64 `query:"stop_mult" validate:"gt=0,lte=10"`
	TPMult   float64 `query:"tp_mult" validate:"gt=0,lte=20"`
}

// Backtest runs the ATR strategy on the last lookback bars (100..5000).
func (h *Handler) Backtest(c echo.Context) error {
	q := backtestQuery{Lookback: h.opts.LookbackDays, StopMult: h.opts.StopMult, TPMult: h.opts.TPMult}
	if bad := bindAndValidate(c, &q); bad != nil {
		return badRequestResponse(c, bad)
	}
	sym := normSymbol(q.Symbol)
	series, err := h.loadSeries(c.Request().Context(), sym)
	if err != nil {
		return internalErrorResponse(c, err)
	}
	if len(series) == 0 {
		return notFoundResponse(c, "no prices for "+sym)
	}

	opts := backtest.DefaultOptions()
	opts.StopMultiplier = q.StopMult
	opts.TakeProfitMultiplier = q.TPMult
	res, ok := backtest.Run(backtest.Tail(series, q.Lookback), opts)
	if !ok {
		return unprocessableResponse(c, fmt.Sprintf("not enough data to backtest %s over %d days", sym, q.Lookback))
	}
	res.Symbol = sym
	return successResponse(c, res)
}

// AdminView is the admin page payload.
type AdminView struct {
	Counts       sqlitestore.Counts `json:"counts"`
	DataVersion  string             `json:"data_version"`
	MarketStatus string             `json:"market_status"`
	LastSession  string             `json:"last_session"`
	WSClients    int                `json:"ws_clients"`
	Commands     []Command          `json:"commands"`
}

// Command documents an operator command.
type Command struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var adminCommands = []Command{
	{"signalctl fetch", "download daily bars for the configured symbols into the database"},
	{"signalctl import stock_data.csv", "load bars from a Date,Symbol,Open,High,Low,Close,Volume CSV"},
	{"signalctl train", "fit the price and direction models and store a new snapshot"},
	{"signalctl predict", "run inference and refresh latest predictions and history"},
	{"signalctl export --out data/", "write stock_data.csv, latest_predictions.csv and predictions_history.csv"},
	{"signalctl accuracy", "print prediction accuracy against realised prices"},
	{"daily", "run the pipeline after every NSE close"},
	{"backtest -symbol TCS -lookback 365", "run the ATR backtest from the command line"},
}

// Admin reports store status and the operator command list.
func (h *Handler) Admin(c echo.Context) error {
	ctx := c.Request().Context()
	counts, err := h.store.Counts(ctx)
	if err != nil {
		return internalErrorResponse(c, err)
	}
	v, err := h.version(ctx)
	if err != nil {
		return internalErrorResponse(c, err)
	}
	now := h.now()
	view := AdminView{
		Counts:       counts,
		DataVersion:  v,
		MarketStatus: markethours.StatusString(now),
		LastSession:  markethours.LastCompletedSession(now).Format(model.DateLayout),
		Commands:     adminCommands,
	}
	if h.hub != nil {
		view.WSClients = h.hub.ClientCount()
	}
	return successResponse(c, view)
}

func normSymbol(s string) string {
	return strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), ".NS")
}
