// Package runlog records completed harvest runs in a local SQLite database
// so past sweeps can be inspected without re-reading output files.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Run is one completed harvest invocation.
type Run struct {
	ID          string
	StartedAt   time.Time
	WindowDays  int
	FilingsSeen int64
	FilingsKept int64
	OutputPath  string
}

// Store persists runs using modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and configures WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS harvest_runs (
	id           TEXT PRIMARY KEY,
	started_at   DATETIME NOT NULL,
	window_days  INTEGER NOT NULL,
	filings_seen INTEGER NOT NULL,
	filings_kept INTEGER NOT NULL,
	output_path  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_harvest_runs_started_at ON harvest_runs(started_at);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "runlog: migrate")
}

// Record inserts a completed run. A zero ID is assigned.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO harvest_runs (id, started_at, window_days, filings_seen, filings_kept, output_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.WindowDays, run.FilingsSeen, run.FilingsKept, run.OutputPath)
	if err != nil {
		return Run{}, eris.Wrap(err, "runlog: insert run")
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, window_days, filings_seen, filings_kept, output_path
		 FROM harvest_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.WindowDays, &r.FilingsSeen, &r.FilingsKept, &r.OutputPath); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "runlog: iterate runs")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
