package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockCast/internal/logger"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read history while a render writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", logger.String("path", dbPath))
	return r, nil
}

// Both tables store timestamp as Unix milliseconds.
func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			ticker      TEXT NOT NULL,
			range_start TEXT,
			range_end   TEXT,
			source      TEXT,
			row_count   INTEGER,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			model        TEXT,
			history_rows INTEGER,
			horizon_days INTEGER,
			final_ds     TEXT,
			final_yhat   REAL,
			final_lower  REAL,
			final_upper  REAL,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_ts ON forecast_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO fetch_events
		(timestamp, ticker, range_start, range_end, source, row_count, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		at.UnixMilli(), evt.Ticker,
		evt.Start.Format("2006-01-02"), evt.End.Format("2006-01-02"),
		evt.Source, evt.Rows, evt.Duration.Milliseconds(), evt.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordForecast(run *ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO forecast_runs
		(id, timestamp, ticker, model, history_rows, horizon_days,
		 final_ds, final_yhat, final_lower, final_upper, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, created.UnixMilli(), run.Ticker, run.Model, run.HistoryRows, run.HorizonDays,
		run.FinalDS.Format("2006-01-02"), run.FinalYHat, run.FinalLower, run.FinalUpper,
		run.Duration.Milliseconds(),
	)
	return err
}

// RecentForecasts returns the newest runs first.
func (r *SQLiteRecorder) RecentForecasts(limit int) ([]ForecastRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, ticker, model, history_rows, horizon_days,
		final_ds, final_yhat, final_lower, final_upper, duration_ms
		FROM forecast_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query forecast runs: %w", err)
	}
	defer rows.Close()

	var runs []ForecastRun
	for rows.Next() {
		var (
			run       ForecastRun
			ts, durMS int64
			finalDS   string
		)
		if err := rows.Scan(&run.ID, &ts, &run.Ticker, &run.Model, &run.HistoryRows, &run.HorizonDays,
			&finalDS, &run.FinalYHat, &run.FinalLower, &run.FinalUpper, &durMS); err != nil {
			return nil, fmt.Errorf("scan forecast run: %w", err)
		}
		run.CreatedAt = time.UnixMilli(ts)
		run.Duration = time.Duration(durMS) * time.Millisecond
		if t, err := time.Parse("2006-01-02", finalDS); err == nil {
			run.FinalDS = t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("closing sqlite recorder")
	return r.db.Close()
}
