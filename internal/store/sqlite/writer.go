package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/signals.db"
}

// Writer is the single SQLite writer. Every write is one transaction.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

// WritePrices upserts bars keyed by (symbol, date) in a single transaction.
func (w *Writer) WritePrices(ctx context.Context, points []model.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	start := time.Now()
	err := w.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO prices (symbol, date, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range points {
			if _, err := stmt.ExecContext(ctx, p.Symbol, p.Date.Format(model.DateLayout),
				p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
				return err
			}
		}
		return bumpVersion(tx)
	})
	if err != nil {
		return fmt.Errorf("sqlite write prices: %w", err)
	}
	log.Printf("[sqlite] committed %d prices in %v", len(points), time.Since(start))
	return nil
}

// ReplaceLatest swaps the latest-predictions table for recs.
func (w *Writer) ReplaceLatest(ctx context.Context, recs []model.PredictionRecord) error {
	err := w.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM latest_predictions`); err != nil {
			return err
		}
		if err := insertPredictions(ctx, tx, "latest_predictions", recs); err != nil {
			return err
		}
		return bumpVersion(tx)
	})
	if err != nil {
		return fmt.Errorf("sqlite replace latest: %w", err)
	}
	return nil
}

// MergeHistory appends recs to history; an existing (date, symbol) row is
// overwritten so the most recent write wins.
func (w *Writer) MergeHistory(ctx context.Context, recs []model.PredictionRecord) error {
	err := w.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertPredictions(ctx, tx, "prediction_history", recs); err != nil {
			return err
		}
		return bumpVersion(tx)
	})
	if err != nil {
		return fmt.Errorf("sqlite merge history: %w", err)
	}
	return nil
}

func insertPredictions(ctx context.Context, tx *sql.Tx, table string, recs []model.PredictionRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO `+table+` (date, symbol, predicted_price, predicted_direction, probability_up, run_ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, r.Date.Format(model.DateLayout), r.Symbol,
			r.PredictedPrice, r.PredictedDirection.String(), r.ProbabilityUp, unixOrNull(r.RunTS)); err != nil {
			return err
		}
	}
	return nil
}

// SaveModelJSON stores a model bundle and returns its version (row id).
// Only the most recent snapshots are kept.
func (w *Writer) SaveModelJSON(ctx context.Context, data []byte) (int64, error) {
	res, err := w.db.ExecContext(ctx, `INSERT INTO model_snapshots (data, created_at) VALUES (?, ?)`,
		string(data), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite insert model snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite model snapshot id: %w", err)
	}

	// Prune old snapshots
	_, err = w.db.ExecContext(ctx, `DELETE FROM model_snapshots WHERE id NOT IN (SELECT id FROM model_snapshots ORDER BY id DESC LIMIT ?)`,
		keepModelSnapshots)
	if err != nil {
		log.Printf("[sqlite] prune model snapshots warning: %v", err)
	}
	return id, nil
}

// LastDate returns the latest stored date for symbol, or the zero time.
func (w *Writer) LastDate(ctx context.Context, symbol string) (time.Time, error) {
	var d sql.NullString
	err := w.db.QueryRowContext(ctx, `SELECT MAX(date) FROM prices WHERE symbol = ?`, symbol).Scan(&d)
	if err != nil {
		return time.Time{}, err
	}
	if !d.Valid {
		return time.Time{}, nil
	}
	return time.Parse(model.DateLayout, d.String)
}

func (w *Writer) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
