package render

import (
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/joss/unpin/internal/hook"
	"github.com/joss/unpin/internal/report"
	"github.com/joss/unpin/internal/target"
)

func plainColors(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func sampleReport() *report.Report {
	started := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	return &report.Report{
		RunID:            "01RUN",
		Device:           "emulator-5554",
		StartedAt:        started,
		CompletedAt:      started.Add(1500 * time.Millisecond),
		HeuristicMatches: 2,
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

func TestReportPretty(t *testing.T) {
	plainColors(t)
	out := New(true).Report(sampleReport())

	assert.Contains(t, out, "Run 01RUN")
	assert.Contains(t, out, "✓ okhttp3.CertificatePinner.check(java.lang.String, java.util.List)")
	assert.Contains(t, out, "✗ ghost.Clazz.verify()")
	assert.Contains(t, out, "class not found: ghost.Clazz")
	assert.Contains(t, out, "(heuristic)")
	assert.Contains(t, out, "2 installed, 1 failed, 2 heuristic matches")
}

func TestReportPlain(t *testing.T) {
	plainColors(t)
	out := New(false).Report(sampleReport())

	assert.Contains(t, out, "run=01RUN device=emulator-5554")
	assert.Contains(t, out, "[failed] ghost.Clazz.verify()")
	assert.Contains(t, out, `reason="class not found: ghost.Clazz"`)
	assert.Contains(t, out, "installed=2 failed=1 matches=2")
}

func TestSummaries(t *testing.T) {
	plainColors(t)
	r := New(false)

	assert.Equal(t, "No archived runs", r.Summaries(nil))

	out := r.Summaries([]report.Summary{{
		RunID:     "01RUN",
		StartedAt: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		Installed: 9,
		Failed:    3,
	}})
	assert.Contains(t, out, "01RUN")
	assert.Contains(t, out, "device=-")
	assert.Contains(t, out, "installed=9 failed=3")
}

func TestTargets(t *testing.T) {
	plainColors(t)
	out := New(true).Targets(target.Defaults())

	assert.Contains(t, out, "Static Targets")
	assert.Contains(t, out, "okhttp3.CertificatePinner")
	assert.Contains(t, out, "android.webkit.WebViewClient")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
}
