// Package report defines the run report: the append-only record collection
// that is the sole externally observable output of an orchestration run,
// plus a SQLite archive so past runs can be reviewed.
package report

import (
	"time"

	"github.com/joss/unpin/internal/hook"
)

// Report aggregates every installation attempt of one orchestration run.
// Single-writer: the orchestrator appends during the run; after Done the
// report is read-only.
type Report struct {
	RunID            string        `json:"run_id"`
	Device           string        `json:"device,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      time.Time     `json:"completed_at"`
	Hooks            []hook.Record `json:"hooks"`
	HeuristicMatches int           `json:"heuristic_matches"`
}

// Append adds attempt records to the report.
func (r *Report) Append(records ...hook.Record) {
	r.Hooks = append(r.Hooks, records...)
}

// InstalledCount returns the number of successfully patched overloads.
func (r *Report) InstalledCount() int {
	n := 0
	for _, h := range r.Hooks {
		if h.Status == hook.StatusInstalled {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failed attempts.
func (r *Report) FailedCount() int {
	return len(r.Hooks) - r.InstalledCount()
}

// Duration returns the run's wall time.
func (r *Report) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Summary is the archived one-line form of a run.
type Summary struct {
	RunID       string    `json:"run_id"`
	Device      string    `json:"device,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Installed   int       `json:"installed"`
	Failed      int       `json:"failed"`
}
