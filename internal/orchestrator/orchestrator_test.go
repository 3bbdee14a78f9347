package orchestrator

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/unpin/internal/bridge"
	"github.com/joss/unpin/internal/bridge/fake"
	"github.com/joss/unpin/internal/hook"
	"github.com/joss/unpin/internal/logging"
	"github.com/joss/unpin/internal/target"
)

func quietLogs(t *testing.T) {
	t.Helper()
	logging.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
}

func TestRunCompletesAgainstSeededBridge(t *testing.T) {
	quietLogs(t)
	fb := fake.Seeded()
	r := New(fb, WithDevice("emulator-5554"))

	assert.Equal(t, PhaseIdle, r.Phase())
	rep := r.Run(context.Background())
	assert.Equal(t, PhaseDone, r.Phase())

	require.NotEmpty(t, rep.RunID)
	assert.Equal(t, "emulator-5554", rep.Device)
	assert.False(t, rep.CompletedAt.Before(rep.StartedAt))

	// The seeded surface installs the pinner, context and WebView hooks
	// and the heuristic phase finds the obfuscated app classes.
	assert.Greater(t, rep.InstalledCount(), 5)
	assert.Greater(t, rep.HeuristicMatches, 0)

	// TrustKit is not in the seeded app; its absence is recorded, not fatal.
	var sawTrustKitFailure bool
	for _, h := range rep.Hooks {
		if h.Class == "com.datatheorem.android.trustkit.pinning.OkHostnameVerifier" {
			sawTrustKitFailure = h.Status == hook.StatusFailed
		}
	}
	assert.True(t, sawTrustKitFailure)
}

func TestFailingFirstTargetDoesNotBlockRest(t *testing.T) {
	quietLogs(t)
	fb := fake.New()
	fb.AddClass("real.Pinner", map[string][]fake.Method{
		"check": {{Params: []string{"java.lang.String"}}},
	})

	targets := []target.Descriptor{
		{Class: "ghost.First", Method: "check", Kind: target.NoOp},
		{Class: "real.Pinner", Method: "check", Kind: target.NoOp},
	}

	rep := New(fb, WithTargets(targets), WithHeuristics(false)).Run(context.Background())

	require.Len(t, rep.Hooks, 2)
	assert.Equal(t, hook.StatusFailed, rep.Hooks[0].Status)
	assert.Equal(t, hook.StatusInstalled, rep.Hooks[1].Status)
	assert.Equal(t, 1, fb.InstallCount())
}

func TestHeuristicsCanBeDisabled(t *testing.T) {
	quietLogs(t)
	fb := fake.Seeded()
	rep := New(fb, WithHeuristics(false)).Run(context.Background())
	assert.Equal(t, 0, rep.HeuristicMatches)
	for _, h := range rep.Hooks {
		assert.False(t, h.Heuristic)
	}
}

// panickyBridge panics when resolving one class; everything else delegates.
type panickyBridge struct {
	*fake.Bridge
	poison string
}

func (p *panickyBridge) ResolveClass(ctx context.Context, name string) (bridge.ClassHandle, error) {
	if name == p.poison {
		panic("bridge lost the process")
	}
	return p.Bridge.ResolveClass(ctx, name)
}

func TestPanickingAttemptIsIsolated(t *testing.T) {
	quietLogs(t)
	fb := fake.New()
	fb.AddClass("real.Pinner", map[string][]fake.Method{
		"check": {{Params: []string{"java.lang.String"}}},
	})
	pb := &panickyBridge{Bridge: fb, poison: "boom.Clazz"}

	targets := []target.Descriptor{
		{Class: "boom.Clazz", Method: "check", Kind: target.NoOp},
		{Class: "real.Pinner", Method: "check", Kind: target.NoOp},
	}

	rep := New(pb, WithTargets(targets), WithHeuristics(false)).Run(context.Background())

	require.Len(t, rep.Hooks, 2)
	assert.Equal(t, hook.StatusFailed, rep.Hooks[0].Status)
	assert.Contains(t, rep.Hooks[0].Reason, "attempt aborted")
	assert.Equal(t, hook.StatusInstalled, rep.Hooks[1].Status)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	quietLogs(t)
	fb := fake.Seeded()

	first := New(fb).Run(context.Background())
	second := New(fb).Run(context.Background())

	assert.Equal(t, first.InstalledCount(), second.InstalledCount())
	assert.Equal(t, first.FailedCount(), second.FailedCount())
	assert.NotEqual(t, first.RunID, second.RunID)
}
