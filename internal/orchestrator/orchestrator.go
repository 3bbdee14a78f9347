// Package orchestrator drives a bypass run: the static target table first,
// then the heuristic scan. Every attempt is isolated; a failed or even
// panicking attempt is recorded and the run moves on. The run always
// completes — partial coverage is an expected outcome against unknown
// targets, and nothing here may take down the process under test.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joss/unpin/internal/bridge"
	"github.com/joss/unpin/internal/heuristic"
	"github.com/joss/unpin/internal/hook"
	"github.com/joss/unpin/internal/implementor"
	"github.com/joss/unpin/internal/logging"
	"github.com/joss/unpin/internal/report"
	"github.com/joss/unpin/internal/target"
)

// Phase is the run state. Transitions are unconditional: no attempt's
// failure blocks progression.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseStaticTargets Phase = "static_targets"
	PhaseHeuristics    Phase = "heuristics"
	PhaseDone          Phase = "done"
)

// Option configures a Runner.
type Option func(*Runner)

// WithTargets overrides the static target table.
func WithTargets(targets []target.Descriptor) Option {
	return func(r *Runner) { r.targets = targets }
}

// WithMatcher overrides the heuristic matcher.
func WithMatcher(m *heuristic.Matcher) Option {
	return func(r *Runner) { r.matcher = m }
}

// WithDevice tags the run with a device identifier for the report.
func WithDevice(device string) Option {
	return func(r *Runner) { r.device = device }
}

// WithHeuristics enables or disables the heuristic phase.
func WithHeuristics(enabled bool) Option {
	return func(r *Runner) { r.heuristics = enabled }
}

// Runner executes one orchestration pass over a bridge.
type Runner struct {
	bridge    bridge.Bridge
	installer *hook.Installer
	matcher   *heuristic.Matcher
	targets   []target.Descriptor

	device     string
	heuristics bool
	phase      Phase
	log        *logging.Logger
}

// New creates a runner with the default target table and heuristic rules.
func New(b bridge.Bridge, opts ...Option) *Runner {
	r := &Runner{
		bridge:     b,
		installer:  hook.New(b, implementor.New(b)),
		matcher:    heuristic.New(nil, nil),
		targets:    target.Defaults(),
		heuristics: true,
		phase:      PhaseIdle,
		log:        logging.New("orchestrator"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Phase returns the runner's current state.
func (r *Runner) Phase() Phase {
	return r.phase
}

// Run executes the full pass and returns its report. It never returns an
// error: every failure, including an enumeration failure during the
// heuristic phase, lands in the report or the log.
func (r *Runner) Run(ctx context.Context) *report.Report {
	rep := &report.Report{
		RunID:     ulid.Make().String(),
		Device:    r.device,
		StartedAt: time.Now().UTC(),
	}
	log := r.log.WithRun(rep.RunID)
	recovery := logging.NewRecoveryHandler("orchestrator")

	r.phase = PhaseStaticTargets
	for _, d := range r.targets {
		d := d
		var records []hook.Record
		err := recovery.WrapError(func() error {
			records = r.installer.Apply(ctx, d)
			return nil
		})
		if err != nil {
			records = []hook.Record{{
				Class:     d.Class,
				Signature: target.Signature{Name: d.Method},
				Kind:      d.Kind,
				Status:    hook.StatusFailed,
				Reason:    fmt.Sprintf("attempt aborted: %v", err),
			}}
		}
		rep.Append(records...)
	}

	r.phase = PhaseHeuristics
	if r.heuristics {
		r.runHeuristics(ctx, rep, log, recovery)
	}

	r.phase = PhaseDone
	rep.CompletedAt = time.Now().UTC()
	log.TimedEvent("run_complete", rep.StartedAt, map[string]any{
		"installed": rep.InstalledCount(),
		"failed":    rep.FailedCount(),
		"matches":   rep.HeuristicMatches,
	})
	return rep
}

func (r *Runner) runHeuristics(ctx context.Context, rep *report.Report, log *logging.Logger, recovery *logging.RecoveryHandler) {
	matches, err := r.matcher.Scan(ctx, r.bridge)
	if err != nil {
		log.Warn("heuristic_scan_failed", nil, err)
		return
	}
	rep.HeuristicMatches = len(matches)

	for _, m := range matches {
		m := m
		var records []hook.Record
		err := recovery.WrapError(func() error {
			records = r.installer.ApplyMethod(ctx, m.Class, m.Method, target.NoOp)
			return nil
		})
		if err != nil {
			continue // heuristic attempts fail silently past the log
		}
		rep.Append(records...)
	}
}
