package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/unpin/internal/hook"
	"github.com/joss/unpin/internal/target"
)

func testReport(runID string) *Report {
	started := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	return &Report{
		RunID:            runID,
		Device:           "emulator-5554",
		StartedAt:        started,
		CompletedAt:      started.Add(2 * time.Second),
		HeuristicMatches: 1,
		Hooks: []hook.Record{
			{
				Class:     "okhttp3.CertificatePinner",
				Signature: target.Signature{Name: "check", Params: []string{"java.lang.String", "java.util.List"}},
				Kind:      target.NoOp,
				Status:    hook.StatusInstalled,
			},
			{
				Class:     "ghost.Clazz",
				Signature: target.Signature{Name: "verify"},
				Kind:      target.ReturnTrue,
				Status:    hook.StatusFailed,
				Reason:    "class not found: ghost.Clazz",
			},
			{
				Class:     "com.example.CertPinner",
				Signature: target.Signature{Name: "a", Params: []string{"java.lang.String"}},
				Kind:      target.NoOp,
				Status:    hook.StatusInstalled,
				Heuristic: true,
			},
		},
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	in := testReport("01RUN")
	require.NoError(t, s.Save(context.Background(), in))

	out, err := s.Get(context.Background(), "01RUN")
	require.NoError(t, err)

	assert.Equal(t, in.Device, out.Device)
	assert.Equal(t, in.HeuristicMatches, out.HeuristicMatches)
	require.Len(t, out.Hooks, 3)
	assert.Equal(t, in.Hooks[0].Signature, out.Hooks[0].Signature)
	assert.Equal(t, hook.StatusFailed, out.Hooks[1].Status)
	assert.Equal(t, "class not found: ghost.Clazz", out.Hooks[1].Reason)
	assert.True(t, out.Hooks[2].Heuristic)
	assert.Equal(t, 2, out.InstalledCount())
	assert.Equal(t, 1, out.FailedCount())
}

func TestListNewestFirst(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	older := testReport("01OLD")
	newer := testReport("01NEW")
	newer.StartedAt = older.StartedAt.Add(time.Hour)
	newer.CompletedAt = newer.StartedAt.Add(time.Second)

	require.NoError(t, s.Save(context.Background(), older))
	require.NoError(t, s.Save(context.Background(), newer))

	summaries, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "01NEW", summaries[0].RunID)
	assert.Equal(t, 2, summaries[0].Installed)
	assert.Equal(t, 1, summaries[0].Failed)
}

func TestGetUnknownRun(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestReportCounts(t *testing.T) {
	r := &Report{}
	assert.Equal(t, 0, r.InstalledCount())
	r.Append(hook.Record{Status: hook.StatusInstalled})
	r.Append(hook.Record{Status: hook.StatusFailed}, hook.Record{Status: hook.StatusInstalled})
	assert.Equal(t, 2, r.InstalledCount())
	assert.Equal(t, 1, r.FailedCount())
}
