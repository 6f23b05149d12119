// SPDX-License-Identifier: MPL-2.0

// Package pathfilter matches relative file paths against comma-separated
// glob expression lists.
//
// A Filter is a disjunction of doublestar-compatible patterns: a path matches
// the filter when it matches at least one pattern. Two filters combine into a
// Rule where exclusion always wins over inclusion.
package pathfilter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter matches paths against a set of glob patterns. The zero Filter
// matches nothing — an empty excludes list must never exclude everything.
type Filter struct {
	patterns []string
}

// New builds a Filter from a comma-separated list of glob expressions
// (e.g., "**/*.class,**/*.conf"). Whitespace around each expression is
// trimmed and empty elements are skipped, so "" yields a Filter that
// matches nothing. Invalid patterns fail here rather than silently
// failing to match at runtime.
func New(expressions string) (Filter, error) {
	var patterns []string
	for _, expr := range strings.Split(expressions, ",") {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		if _, err := doublestar.Match(expr, ""); err != nil {
			return Filter{}, fmt.Errorf("pathfilter: invalid pattern %q: %w", expr, err)
		}
		patterns = append(patterns, expr)
	}
	return Filter{patterns: patterns}, nil
}

// Matches reports whether rel matches any of the filter's patterns.
// The path is normalised to forward slashes before matching so callers can
// pass OS-native relative paths.
func (f Filter) Matches(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range f.patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// Empty reports whether the filter has no patterns.
func (f Filter) Empty() bool {
	return len(f.patterns) == 0
}

// String renders the pattern list for diagnostics, e.g. "[**/*.class, **/*.conf]".
func (f Filter) String() string {
	return "[" + strings.Join(f.patterns, ", ") + "]"
}

// Rule combines an include and an exclude filter into the relevance policy
// applied to change events.
type Rule struct {
	Includes Filter
	Excludes Filter
}

// NewRule builds a Rule from two comma-separated expression lists.
func NewRule(includes, excludes string) (Rule, error) {
	inc, err := New(includes)
	if err != nil {
		return Rule{}, err
	}
	exc, err := New(excludes)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Includes: inc, Excludes: exc}, nil
}

// Relevant reports whether rel should trigger a reload: it must match the
// include filter and not match the exclude filter. Exclusion wins over
// inclusion.
func (r Rule) Relevant(rel string) bool {
	return r.Includes.Matches(rel) && !r.Excludes.Matches(rel)
}
