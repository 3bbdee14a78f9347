// Package heuristic scans the loaded-class namespace for pinning and trust
// checks that the static target table does not know about. Matching is
// best-effort: obfuscated apps ship pinning logic under minified names, so
// candidate classes are probed with a small method-name alphabet. Misses
// are skipped silently; only install-time failures surface in the report.
package heuristic

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joss/unpin/internal/bridge"
	"github.com/joss/unpin/internal/logging"
)

// Scope says what part of a candidate a rule applies to.
type Scope string

const (
	ScopeClassName  Scope = "class"
	ScopeMethodName Scope = "method"
)

// Rule matches names either by case-sensitive substring (Keyword) or by
// glob pattern (Pattern, doublestar syntax with '.' as the separator).
// Pattern wins when both are set.
type Rule struct {
	Keyword string
	Pattern string
	Scope   Scope
}

// Matches tests the rule against a name.
func (r Rule) Matches(name string) bool {
	if r.Pattern != "" {
		ok, err := doublestar.Match(dotsToSlashes(r.Pattern), dotsToSlashes(name))
		return err == nil && ok
	}
	return r.Keyword != "" && strings.Contains(name, r.Keyword)
}

// doublestar separates on '/'; class namespaces separate on '.'.
func dotsToSlashes(s string) string {
	return strings.ReplaceAll(s, ".", "/")
}

// Match is a candidate (class, method) pair the scan found. Matches are
// transient: every scan re-enumerates from scratch since the loaded set
// can change between runs.
type Match struct {
	Class  string
	Method string
}

// Matcher scans loaded class names against a rule set and probes
// candidates for check-method names.
type Matcher struct {
	rules  []Rule
	probes []string
	log    *logging.Logger
}

// New creates a matcher. Empty rule or probe sets fall back to the
// defaults.
func New(rules []Rule, probes []string) *Matcher {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if len(probes) == 0 {
		probes = DefaultProbes()
	}
	return &Matcher{
		rules:  rules,
		probes: probes,
		log:    logging.New("heuristic"),
	}
}

// Scan enumerates every loaded class, keeps those matching a class-scoped
// rule, and probes each for the configured method names. Classes that fail
// to resolve and probes with no overloads are skipped without a trace.
// The only returned error is an enumeration failure.
func (m *Matcher) Scan(ctx context.Context, b bridge.Bridge) ([]Match, error) {
	names, err := b.LoadedClassNames(ctx)
	if err != nil {
		return nil, err
	}

	var classRules, methodRules []Rule
	for _, r := range m.rules {
		if r.Scope == ScopeMethodName {
			methodRules = append(methodRules, r)
		} else {
			classRules = append(classRules, r)
		}
	}

	var matches []Match
	for _, name := range names {
		if !anyMatches(classRules, name) {
			continue
		}

		class, err := b.ResolveClass(ctx, name)
		if err != nil {
			continue
		}

		for _, probe := range m.probes {
			if len(methodRules) > 0 && !anyMatches(methodRules, probe) {
				continue
			}
			overloads, err := b.Overloads(ctx, class, probe)
			if err != nil || len(overloads) == 0 {
				continue
			}
			matches = append(matches, Match{Class: name, Method: probe})
		}
	}

	m.log.Info("scan_complete", map[string]any{
		"classes": len(names),
		"matches": len(matches),
	})
	return matches, nil
}

// DefaultRules is the shipped keyword set: pinning-, trust- and
// certificate-related tokens in both cases, plus glob rules for known
// pinning namespaces.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "Pin", Scope: ScopeClassName},
		{Keyword: "pin", Scope: ScopeClassName},
		{Keyword: "Trust", Scope: ScopeClassName},
		{Keyword: "trust", Scope: ScopeClassName},
		{Keyword: "Certificate", Scope: ScopeClassName},
		{Keyword: "certificate", Scope: ScopeClassName},
		{Keyword: "SSL", Scope: ScopeClassName},
		{Keyword: "ssl", Scope: ScopeClassName},
		{Pattern: "okhttp3.internal.tls.**", Scope: ScopeClassName},
		{Pattern: "**.SSLCertificateChecker", Scope: ScopeClassName},
	}
}

// DefaultProbes is the shipped check-method shortlist: descriptive names
// plus the short minified alphabet pinning logic commonly ships under.
func DefaultProbes() []string {
	return []string{
		"check", "verify", "checkPinning", "checkPins", "checkServerTrusted",
		"a", "b", "c", "d", "e", "f", "g", "aa", "ab",
	}
}

func anyMatches(rules []Rule, name string) bool {
	for _, r := range rules {
		if r.Matches(name) {
			return true
		}
	}
	return false
}
