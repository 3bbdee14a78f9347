package heuristic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/unpin/internal/bridge/fake"
)

func TestRuleKeywordIsCaseSensitiveSubstring(t *testing.T) {
	r := Rule{Keyword: "Pin", Scope: ScopeClassName}
	assert.True(t, r.Matches("com.example.CertPinner"))
	assert.False(t, r.Matches("com.example.certpinner"))
	assert.False(t, r.Matches("com.example.Unrelated"))
}

func TestRuleGlobPattern(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"okhttp3.internal.tls.**", "okhttp3.internal.tls.OkHostnameVerifier", true},
		{"okhttp3.internal.tls.**", "okhttp3.CertificatePinner", false},
		{"**.SSLCertificateChecker", "nl.xservices.plugins.SSLCertificateChecker", true},
		{"**.SSLCertificateChecker", "nl.xservices.plugins.Other", false},
	}
	for _, tt := range tests {
		r := Rule{Pattern: tt.pattern, Scope: ScopeClassName}
		assert.Equal(t, tt.want, r.Matches(tt.name), "%s vs %s", tt.pattern, tt.name)
	}
}

func TestScanFindsKeywordMatches(t *testing.T) {
	fb := fake.New()
	fb.AddClass("com.example.CertPinner", map[string][]fake.Method{
		"check": {{Params: []string{"java.lang.String"}}},
	})
	fb.AddClass("x.y.TrustCheckerImpl", map[string][]fake.Method{
		"verify": {{Params: []string{"java.lang.String"}}},
	})
	fb.AddClass("com.example.MainActivity", map[string][]fake.Method{
		"check": {{Params: []string{}}},
	})

	m := New([]Rule{
		{Keyword: "pin", Scope: ScopeClassName},
		{Keyword: "Pin", Scope: ScopeClassName},
		{Keyword: "Trust", Scope: ScopeClassName},
	}, []string{"check", "verify"})

	matches, err := m.Scan(context.Background(), fb)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Match{
		{Class: "com.example.CertPinner", Method: "check"},
		{Class: "x.y.TrustCheckerImpl", Method: "verify"},
	}, matches)
}

func TestScanZeroMatchesWithoutKeywordHits(t *testing.T) {
	fb := fake.New()
	fb.AddClass("com.example.MainActivity", map[string][]fake.Method{
		"check": {{Params: []string{}}},
	})
	fb.AddClass("com.example.Router", map[string][]fake.Method{
		"verify": {{Params: []string{}}},
	})

	m := New([]Rule{{Keyword: "Pin", Scope: ScopeClassName}}, []string{"check", "verify"})
	matches, err := m.Scan(context.Background(), fb)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestScanSkipsClassesWithoutProbedMethods(t *testing.T) {
	fb := fake.New()
	fb.AddClass("com.example.PinConfig", map[string][]fake.Method{
		"toString": {{Params: []string{}}},
	})

	m := New([]Rule{{Keyword: "Pin", Scope: ScopeClassName}}, []string{"check", "a"})
	matches, err := m.Scan(context.Background(), fb)
	require.NoError(t, err)
	assert.Empty(t, matches, "class matched but no probe resolved; skipped silently")
}

func TestScanProbesMinifiedAlphabet(t *testing.T) {
	fb := fake.New()
	fb.AddClass("o.pin.a", map[string][]fake.Method{
		"a": {{Params: []string{"java.lang.String"}}},
		"b": {{Params: []string{}}},
	})

	m := New([]Rule{{Keyword: "pin", Scope: ScopeClassName}}, nil)
	matches, err := m.Scan(context.Background(), fb)
	require.NoError(t, err)
	assert.Contains(t, matches, Match{Class: "o.pin.a", Method: "a"})
	assert.Contains(t, matches, Match{Class: "o.pin.a", Method: "b"})
}

func TestMethodScopedRulesFilterProbes(t *testing.T) {
	fb := fake.New()
	fb.AddClass("com.example.CertPinner", map[string][]fake.Method{
		"check":    {{Params: []string{}}},
		"toString": {{Params: []string{}}},
	})

	m := New([]Rule{
		{Keyword: "Pin", Scope: ScopeClassName},
		{Keyword: "check", Scope: ScopeMethodName},
	}, []string{"check", "toString"})

	matches, err := m.Scan(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, []Match{{Class: "com.example.CertPinner", Method: "check"}}, matches)
}

func TestScanIsRestartable(t *testing.T) {
	fb := fake.New()
	fb.AddClass("a.Pinner", map[string][]fake.Method{
		"check": {{Params: []string{}}},
	})
	m := New(nil, nil)

	first, err := m.Scan(context.Background(), fb)
	require.NoError(t, err)

	// Loaded set grows between scans; the rescan sees the new class.
	fb.AddClass("b.TrustKit", map[string][]fake.Method{
		"verify": {{Params: []string{}}},
	})
	second, err := m.Scan(context.Background(), fb)
	require.NoError(t, err)
	assert.Greater(t, len(second), len(first))
}
