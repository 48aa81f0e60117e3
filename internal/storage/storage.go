package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"parking_api_testing/internal/model"
	"parking_api_testing/internal/reporter"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT    PRIMARY KEY,
	plan        TEXT    NOT NULL,
	base_url    TEXT    NOT NULL,
	started_at  TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS results (
	run_id      TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	number      INTEGER NOT NULL,
	section     TEXT    NOT NULL DEFAULT '',
	method      TEXT    NOT NULL,
	endpoint    TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	status_code INTEGER NOT NULL DEFAULT 0,
	response    TEXT    NOT NULL DEFAULT '',
	error       TEXT    NOT NULL DEFAULT '',
	duration_ms REAL    NOT NULL DEFAULT 0,
	created_at  TEXT    NOT NULL,
	PRIMARY KEY (run_id, number)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// timeFormat is the format used for storing timestamps in SQLite.
const timeFormat = "2006-01-02T15:04:05.000Z"

type Run struct {
	ID        string
	Plan      string
	BaseURL   string
	StartedAt time.Time
	Duration  time.Duration
	Skipped   int

	// filled by ListRuns
	Requests int
	Errors   int
	Failed   int
}

// NewRun returns a run with a fresh id.
func NewRun(plan, baseURL string, startedAt time.Time) Run {
	return Run{ID: uuid.NewString(), Plan: plan, BaseURL: baseURL, StartedAt: startedAt}
}

// SQLiteStore keeps the history of runs and their records.
type SQLiteStore struct {
	db *sql.DB
}

func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	var hasSchemaTbl int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&hasSchemaTbl); err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if hasSchemaTbl == 0 {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("apply base schema: %w", err)
		}
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
		return nil
	}

	var currentVersion int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if currentVersion != schemaVersion {
		return fmt.Errorf("unsupported history schema v%d (want v%d)", currentVersion, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores the run and all of its records in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, plan, base_url, started_at, duration_ms, skipped) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Plan, run.BaseURL, formatTime(run.StartedAt), run.Duration.Milliseconds(), run.Skipped)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, number, section, method, endpoint, description, status_code, response, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		number := rec.Number
		if number == 0 {
			number = i + 1
		}
		_, err := stmt.ExecContext(ctx,
			run.ID, number, rec.Section, rec.Method, rec.Endpoint, rec.Description, rec.StatusCode,
			reporter.FormatResponse(rec.Response), rec.Error, float64(rec.Duration.Microseconds())/1000, formatTime(rec.Timestamp))
		if err != nil {
			return fmt.Errorf("insert result %d: %w", number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first, with per-run request counts.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.plan, r.base_url, r.started_at, r.duration_ms, r.skipped,
		       COUNT(res.number),
		       COALESCE(SUM(CASE WHEN res.error != '' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN res.error = '' AND res.status_code >= 400 THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN results res ON res.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &run.Plan, &run.BaseURL, &startedAt, &durationMS, &run.Skipped,
			&run.Requests, &run.Errors, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(startedAt)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the stored records of one run in call order.
func (s *SQLiteStore) Results(ctx context.Context, runID string) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, section, method, endpoint, description, status_code, response, error, duration_ms, created_at
		FROM results WHERE run_id = ? ORDER BY number`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var (
			rec        model.Record
			response   string
			durationMS float64
			createdAt  string
		)
		if err := rows.Scan(&rec.Number, &rec.Section, &rec.Method, &rec.Endpoint, &rec.Description,
			&rec.StatusCode, &response, &rec.Error, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		rec.Response = response
		rec.Duration = time.Duration(durationMS * float64(time.Millisecond))
		rec.Timestamp = parseTime(createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}
