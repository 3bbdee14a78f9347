package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Header("heuristic matches: %d", 2)
	w.Item("%s %s.%s", StatusIcon("candidate"), "com.example.CertPinner", "a")
	w.Println("done in %s", "1.5s")
	w.Line()
	w.Empty("No heuristic matches")
	w.Print("%d", 7)

	out := buf.String()
	assert.Contains(t, out, "HEURISTIC MATCHES: 2\n\n")
	assert.Contains(t, out, "  • com.example.CertPinner.a\n")
	assert.Contains(t, out, "done in 1.5s\n")
	assert.Contains(t, out, "No heuristic matches\n")
	assert.Contains(t, out, "7")
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"installed", "✓"},
		{"failed", "✗"},
		{"warning", "!"},
		{"candidate", "•"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusIcon(tt.status))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "longer ...", Truncate("longer than the cap", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestLongReasonsAreCapped(t *testing.T) {
	long := make([]byte, maxReasonLen+50)
	for i := range long {
		long[i] = 'x'
	}
	rep := sampleReport()
	rep.Hooks[1].Reason = string(long)

	out := New(false).Report(rep)
	assert.Contains(t, out, "xxx...")
	assert.NotContains(t, out, string(long))
}
