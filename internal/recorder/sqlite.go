package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"MarketPulse/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the API can read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                  TEXT PRIMARY KEY,
			started_at          INTEGER NOT NULL,
			finished_at         INTEGER NOT NULL,
			status              TEXT,
			instruments         INTEGER,
			signals             INTEGER,
			skipped             INTEGER,
			failed              INTEGER,
			sentiment_fallback  INTEGER,
			volatility_fallback INTEGER,
			market_mood         INTEGER,
			sentiment_value     INTEGER,
			top_symbol          TEXT,
			top_score           INTEGER,
			error               TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS run_instruments (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES runs(id),
			symbol     TEXT NOT NULL,
			asset_type TEXT,
			outcome    TEXT,
			reason     TEXT,
			score      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_instruments_run ON run_instruments(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(ctx context.Context, report *model.RunReport, snap *model.MarketSnapshot, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := model.StatusDegraded
	var mood, sentiment, topScore int
	var topSymbol, errMsg string
	if snap != nil {
		status = snap.Status
		mood, sentiment = snap.MarketMood, snap.SentimentValue
		if top := snap.Top(); top != nil {
			topSymbol, topScore = top.Symbol, top.Score
		}
	}
	if runErr != nil {
		status = "failed"
		errMsg = runErr.Error()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, finished_at, status, instruments, signals, skipped, failed,
		 sentiment_fallback, volatility_fallback, market_mood, sentiment_value,
		 top_symbol, top_score, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		report.ID, report.StartedAt.Unix(), report.FinishedAt.Unix(), status,
		report.Instruments, report.Signals, report.Skipped, report.Failed,
		report.SentimentFallback, report.VolatilityFallback, mood, sentiment,
		topSymbol, topScore, errMsg,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range report.Outcomes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_instruments
			(run_id, symbol, asset_type, outcome, reason, score)
			VALUES (?,?,?,?,?,?)`,
			report.ID, o.Symbol, string(o.AssetType), string(o.Outcome), o.Reason, o.Score,
		); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.Symbol, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the latest runs, newest first.
func (r *SQLiteRecorder) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, started_at, finished_at, status,
		instruments, signals, skipped, failed, market_mood, sentiment_value,
		top_symbol, top_score, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		var started, finished int64
		if err := rows.Scan(&s.ID, &started, &finished, &s.Status,
			&s.Instruments, &s.Signals, &s.Skipped, &s.Failed, &s.MarketMood, &s.Sentiment,
			&s.TopSymbol, &s.TopScore, &s.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.StartedAt = time.Unix(started, 0).UTC()
		s.FinishedAt = time.Unix(finished, 0).UTC()
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
