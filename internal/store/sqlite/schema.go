package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNoModel is returned when no model snapshot has been saved yet.
var ErrNoModel = errors.New("sqlite: no model snapshot stored")

// keepModelSnapshots is how many model versions are retained.
const keepModelSnapshots = 10

func open(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS prices (
			symbol     TEXT    NOT NULL,
			date       TEXT    NOT NULL,
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			volume     INTEGER NOT NULL,
			PRIMARY KEY (symbol, date)
		);

		CREATE TABLE IF NOT EXISTS latest_predictions (
			symbol              TEXT    NOT NULL PRIMARY KEY,
			date                TEXT    NOT NULL,
			predicted_price     REAL    NOT NULL,
			predicted_direction TEXT    NOT NULL,
			probability_up      REAL    NOT NULL,
			run_ts              INTEGER
		);

		CREATE TABLE IF NOT EXISTS prediction_history (
			date                TEXT    NOT NULL,
			symbol              TEXT    NOT NULL,
			predicted_price     REAL    NOT NULL,
			predicted_direction TEXT    NOT NULL,
			probability_up      REAL    NOT NULL,
			run_ts              INTEGER,
			PRIMARY KEY (date, symbol)
		);

		CREATE TABLE IF NOT EXISTS model_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			data       TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS store_meta (
			key   TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// bumpVersion records that stored data changed. Dashboards key caches on it.
func bumpVersion(e execer) error {
	_, err := e.Exec(`INSERT OR REPLACE INTO store_meta (key, value) VALUES ('data_version', ?)`,
		strconv.FormatInt(time.Now().UnixNano(), 10))
	if err != nil {
		return fmt.Errorf("bump data version: %w", err)
	}
	return nil
}

func unixOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}
