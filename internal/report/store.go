// Package report provides the SQLite-backed results journal for
// certification runs. The harness records run lifecycle and per-step
// outcomes here; the certification verdict lives in the journal, not
// in the process exit code.
package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Migration represents a database schema migration.
type Migration struct {
	Version     int
	Description string
	Up          string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema with runs and steps",
		Up: `
CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    driver      TEXT NOT NULL,
    started_ns  INTEGER NOT NULL,
    finished_ns INTEGER,
    status      TEXT NOT NULL DEFAULT 'running'
);

CREATE TABLE IF NOT EXISTS steps (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      INTEGER NOT NULL REFERENCES runs(id),
    name        TEXT NOT NULL,
    status      TEXT NOT NULL,
    detail      TEXT,
    duration_ns INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id);
`,
	},
}

// Step statuses recorded in the journal.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Run statuses.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunAborted  = "aborted"
)

// Store is the results journal. All methods are called from the worker
// goroutine that owns the certification run.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the journal at path and applies any
// pending migrations. The file is created owner-only.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	if err := os.Chmod(path, 0600); err != nil {
		db.Close()
		return nil, fmt.Errorf("restrict journal permissions: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_ns INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var current int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_ns) VALUES (?, ?)`,
			m.Version, time.Now().UnixNano()); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// BeginRun records the start of a certification run and returns its ID.
func (s *Store) BeginRun(driver string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO runs (driver, started_ns, status) VALUES (?, ?, ?)`,
		driver, time.Now().UnixNano(), RunRunning)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	return res.LastInsertId()
}

// RecordStep appends a step outcome to a run.
func (s *Store) RecordStep(runID int64, name, status, detail string, d time.Duration) error {
	_, err := s.db.Exec(`INSERT INTO steps (run_id, name, status, detail, duration_ns)
		VALUES (?, ?, ?, ?, ?)`,
		runID, name, status, detail, d.Nanoseconds())
	if err != nil {
		return fmt.Errorf("record step %q: %w", name, err)
	}
	return nil
}

// FinishRun marks a run finished with the given status.
func (s *Store) FinishRun(runID int64, status string) error {
	_, err := s.db.Exec(`UPDATE runs SET finished_ns = ?, status = ? WHERE id = ?`,
		time.Now().UnixNano(), status, runID)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	return nil
}

// RunSummary is a recorded run with its step counts.
type RunSummary struct {
	ID       int64
	Driver   string
	Status   string
	Started  time.Time
	Finished time.Time
	Passed   int
	Failed   int
	Skipped  int
}

// Runs returns recorded runs, newest first.
func (s *Store) Runs() ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.driver, r.status, r.started_ns, COALESCE(r.finished_ns, 0),
		       COALESCE(SUM(CASE WHEN s.status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN s.status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN s.status = ? THEN 1 ELSE 0 END), 0)
		FROM runs r LEFT JOIN steps s ON s.run_id = r.id
		GROUP BY r.id ORDER BY r.id DESC`,
		StatusPassed, StatusFailed, StatusSkipped)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedNS, finishedNS int64
		if err := rows.Scan(&r.ID, &r.Driver, &r.Status, &startedNS, &finishedNS,
			&r.Passed, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Started = time.Unix(0, startedNS)
		if finishedNS != 0 {
			r.Finished = time.Unix(0, finishedNS)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}
