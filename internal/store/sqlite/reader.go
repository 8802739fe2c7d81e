package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for the dashboard and jobs.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading. The schema is created
// if missing so that a fresh database reads as empty.
func NewReader(dbPath string) (*Reader, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite reader schema: %w", err)
	}

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (r *Reader) DB() *sql.DB { return r.db }

// ReadSeries returns one symbol's bars after afterDate (zero = all), ascending.
func (r *Reader) ReadSeries(ctx context.Context, symbol string, afterDate time.Time) ([]model.PricePoint, error) {
	after := ""
	if !afterDate.IsZero() {
		after = afterDate.Format(model.DateLayout)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM prices
		WHERE symbol = ? AND date > ?
		ORDER BY date ASC
	`, symbol, after)
	if err != nil {
		return nil, fmt.Errorf("sqlite query prices: %w", err)
	}
	defer rows.Close()

	var out []model.PricePoint
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReadAll returns every symbol's bars, ascending by date per symbol.
func (r *Reader) ReadAll(ctx context.Context) (map[string][]model.PricePoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM prices
		ORDER BY symbol ASC, date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query all prices: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.PricePoint)
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		out[p.Symbol] = append(out[p.Symbol], p)
	}
	return out, rows.Err()
}

func scanPrice(rows *sql.Rows) (model.PricePoint, error) {
	var p model.PricePoint
	var date string
	if err := rows.Scan(&p.Symbol, &date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
		return p, fmt.Errorf("sqlite scan prices: %w", err)
	}
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return p, fmt.Errorf("sqlite parse date %q: %w", date, err)
	}
	p.Date = d
	return p, nil
}

// Symbols returns the distinct stored symbols, sorted.
func (r *Reader) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query symbols: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReadLatest returns the latest predictions sorted by symbol.
func (r *Reader) ReadLatest(ctx context.Context) ([]model.PredictionRecord, error) {
	return r.readPredictions(ctx, `
		SELECT date, symbol, predicted_price, predicted_direction, probability_up, run_ts
		FROM latest_predictions ORDER BY symbol ASC`)
}

// ReadHistory returns the prediction history sorted by date then symbol.
func (r *Reader) ReadHistory(ctx context.Context) ([]model.PredictionRecord, error) {
	return r.readPredictions(ctx, `
		SELECT date, symbol, predicted_price, predicted_direction, probability_up, run_ts
		FROM prediction_history ORDER BY date ASC, symbol ASC`)
}

func (r *Reader) readPredictions(ctx context.Context, query string) ([]model.PredictionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite query predictions: %w", err)
	}
	defer rows.Close()

	var out []model.PredictionRecord
	for rows.Next() {
		var rec model.PredictionRecord
		var date, dir string
		var runTS sql.NullInt64
		if err := rows.Scan(&date, &rec.Symbol, &rec.PredictedPrice, &dir, &rec.ProbabilityUp, &runTS); err != nil {
			return nil, fmt.Errorf("sqlite scan predictions: %w", err)
		}
		if rec.Date, err = time.Parse(model.DateLayout, date); err != nil {
			return nil, fmt.Errorf("sqlite parse date %q: %w", date, err)
		}
		rec.PredictedDirection, _ = model.ParseDirection(dir)
		if runTS.Valid {
			rec.RunTS = time.Unix(runTS.Int64, 0).UTC()
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ReadLatestModelJSON loads the most recent model bundle and its version.
func (r *Reader) ReadLatestModelJSON(ctx context.Context) ([]byte, int64, error) {
	var id int64
	var data string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, data FROM model_snapshots
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&id, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNoModel
	}
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite read model snapshot: %w", err)
	}
	return []byte(data), id, nil
}

// DataVersion changes whenever prices or predictions are written.
func (r *Reader) DataVersion(ctx context.Context) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = 'data_version'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite read data version: %w", err)
	}
	return v, nil
}

// Counts reports table sizes for the admin page.
type Counts struct {
	Symbols     int    `json:"symbols"`
	Prices      int    `json:"prices"`
	Latest      int    `json:"latest_predictions"`
	History     int    `json:"history"`
	ModelVer    int64  `json:"model_version"`
	LastPriceOn string `json:"last_price_date"`
}

// Counts returns row counts and the latest model version.
func (r *Reader) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	var last sql.NullString
	var ver sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(DISTINCT symbol) FROM prices),
			(SELECT COUNT(*) FROM prices),
			(SELECT COUNT(*) FROM latest_predictions),
			(SELECT COUNT(*) FROM prediction_history),
			(SELECT MAX(id) FROM model_snapshots),
			(SELECT MAX(date) FROM prices)
	`).Scan(&c.Symbols, &c.Prices, &c.Latest, &c.History, &ver, &last)
	if err != nil {
		return c, fmt.Errorf("sqlite counts: %w", err)
	}
	c.ModelVer = ver.Int64
	c.LastPriceOn = last.String
	return c, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
