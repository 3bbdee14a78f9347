package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joss/unpin/internal/hook"
	"github.com/joss/unpin/internal/target"
)

// Store archives run reports in a local SQLite database. It persists
// report output only; the installed patches live in the target runtime and
// are never persisted here.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and migrates) the archive at path. The parent directory is
// created as needed. Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		device TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL,
		heuristic_matches INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS hooks (
		run_id TEXT NOT NULL,
		class TEXT NOT NULL,
		method TEXT NOT NULL,
		params TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		heuristic INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_hooks_run ON hooks(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives a completed run.
func (s *Store) Save(ctx context.Context, r *Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, device, started_at, completed_at, heuristic_matches)
		VALUES (?, ?, ?, ?, ?)
	`, r.RunID, r.Device, r.StartedAt, r.CompletedAt, r.HeuristicMatches)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, h := range r.Hooks {
		heuristic := 0
		if h.Heuristic {
			heuristic = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO hooks (run_id, class, method, params, kind, status, reason, heuristic)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, h.Class, h.Signature.Name, strings.Join(h.Signature.Params, ","),
			string(h.Kind), string(h.Status), h.Reason, heuristic)
		if err != nil {
			return fmt.Errorf("insert hook: %w", err)
		}
	}

	return tx.Commit()
}

// List returns the most recent run summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.device, r.started_at, r.completed_at,
		       COALESCE(SUM(CASE WHEN h.status = 'installed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN h.status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN hooks h ON h.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sm Summary
		var device sql.NullString
		if err := rows.Scan(&sm.RunID, &device, &sm.StartedAt, &sm.CompletedAt, &sm.Installed, &sm.Failed); err != nil {
			return nil, err
		}
		sm.Device = device.String
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// Get loads a full archived report by run ID.
func (s *Store) Get(ctx context.Context, runID string) (*Report, error) {
	r := &Report{RunID: runID}
	var device sql.NullString
	var started, completed time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT device, started_at, completed_at, heuristic_matches
		FROM runs WHERE run_id = ?
	`, runID).Scan(&device, &started, &completed, &r.HeuristicMatches)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, err
	}
	r.Device = device.String
	r.StartedAt = started
	r.CompletedAt = completed

	rows, err := s.db.QueryContext(ctx, `
		SELECT class, method, params, kind, status, reason, heuristic
		FROM hooks WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var h hook.Record
		var params string
		var reason sql.NullString
		var kind, status string
		var heuristic int
		if err := rows.Scan(&h.Class, &h.Signature.Name, &params, &kind, &status, &reason, &heuristic); err != nil {
			return nil, err
		}
		if params != "" {
			h.Signature.Params = strings.Split(params, ",")
		}
		h.Kind = target.Kind(kind)
		h.Status = hook.Status(status)
		h.Reason = reason.String
		h.Heuristic = heuristic == 1
		r.Hooks = append(r.Hooks, h)
	}
	return r, rows.Err()
}
