// Package sqlite archives enriched ticks to a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"chartfeed/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// Record is one enriched tick to archive.
type Record struct {
	Symbol string
	Point  model.EnrichedPoint
}

// RecorderConfig configures the SQLite recorder.
type RecorderConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/chartfeed.db"
}

// Recorder is a single-goroutine SQLite writer with transaction batching.
type Recorder struct {
	db *sql.DB
}

// New creates a Recorder, initializing the database with WAL mode and schema.
func New(cfg RecorderConfig) (*Recorder, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Recorder{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (r *Recorder) DB() *sql.DB { return r.db }

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ticks (
			symbol TEXT NOT NULL,
			ts     TEXT NOT NULL,
			value  REAL NOT NULL,
			sma    REAL,
			rsi    REAL,
			PRIMARY KEY (symbol, ts)
		);
	`)
	return err
}

// Run reads records from recordCh and inserts them in batched transactions.
// Flushes every defaultBatchSize records OR every defaultFlushDelay,
// whichever comes first. Blocks until ctx is cancelled or recordCh is closed.
func (r *Recorder) Run(ctx context.Context, recordCh <-chan Record) {
	batch := make([]Record, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.insertBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert failed (%d records): %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case rec, ok := <-recordCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= defaultBatchSize {
				flush()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(defaultFlushDelay)
			}
		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

func (r *Recorder) insertBatch(batch []Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO ticks (symbol, ts, value, sma, rsi)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		if _, err := stmt.Exec(rec.Symbol, rec.Point.Date, rec.Point.Value, rec.Point.SMA, rec.Point.RSI); err != nil {
			return fmt.Errorf("exec: %w", err)
		}
	}
	return tx.Commit()
}

// History returns archived points for a symbol ordered by timestamp, newest
// last, capped at limit.
func (r *Recorder) History(ctx context.Context, symbol string, limit int) ([]model.EnrichedPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, value, sma, rsi FROM (
			SELECT ts, value, sma, rsi FROM ticks
			WHERE symbol = ? ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []model.EnrichedPoint
	for rows.Next() {
		var p model.EnrichedPoint
		var sma, rsi sql.NullFloat64
		if err := rows.Scan(&p.Date, &p.Value, &sma, &rsi); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if sma.Valid {
			v := sma.Float64
			p.SMA = &v
		}
		if rsi.Valid {
			v := rsi.Float64
			p.RSI = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
