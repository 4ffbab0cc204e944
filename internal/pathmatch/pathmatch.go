// Package pathmatch evaluates path-glob include/exclude rules.
//
// Patterns are slash-separated. A "*" segment wildcard never crosses a
// separator; "**" matches zero or more whole segments. Dotfiles are only
// matched when a pattern names them explicitly.
package pathmatch

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Matcher is a compiled predicate over slash-separated paths.
// An empty pattern list compiles to a matcher that matches nothing;
// callers own any "empty means everything" semantics.
type Matcher struct {
	patterns [][]string
}

// compiled caches matchers by pattern-set key so a rule set shared across
// analyzers compiles once per distinct set.
var compiled sync.Map // uint64 -> *Matcher

// Compile validates and compiles a list of glob patterns.
func Compile(patterns []string) (*Matcher, error) {
	if m, ok := compiled.Load(patternsKey(patterns)); ok {
		return m.(*Matcher), nil
	}

	m := &Matcher{patterns: make([][]string, 0, len(patterns))}
	for _, p := range patterns {
		segs, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, segs)
	}
	compiled.Store(patternsKey(patterns), m)
	return m, nil
}

// patternsKey is an order-independent xxhash over the pattern list.
func patternsKey(patterns []string) uint64 {
	sorted := append([]string(nil), patterns...)
	sort.Strings(sorted)
	h := xxhash.New()
	for _, p := range sorted {
		h.WriteString(p)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func compilePattern(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty glob pattern")
	}
	segs := strings.Split(strings.TrimPrefix(pattern, "/"), "/")
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("glob pattern %q has an empty segment", pattern)
		}
		if seg == "**" {
			continue
		}
		if strings.Contains(seg, "**") {
			return nil, fmt.Errorf("glob pattern %q: ** must be a whole segment", pattern)
		}
		// path.Match reports malformed segments (e.g. unclosed class).
		if _, err := path.Match(seg, "x"); err != nil {
			return nil, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}
	}
	return segs, nil
}

// Matches reports whether the path matches at least one pattern.
func (m *Matcher) Matches(p string) bool {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for _, pattern := range m.patterns {
		if matchSegments(pattern, parts) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		// Zero or more segments: try every suffix of parts.
		for skip := 0; skip <= len(parts); skip++ {
			if matchSegments(pattern[1:], parts[skip:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}

// RuleSet is an analyzer's relevance specification. An empty Include list
// means every file is relevant (a whole-change-set dependency); Exclude
// always wins over Include.
type RuleSet struct {
	Include []string
	Exclude []string

	once    sync.Once
	include *Matcher
	exclude *Matcher
	err     error
}

// Compile validates both pattern lists. It is called implicitly by
// Relevant but exposed so configuration errors surface early.
func (r *RuleSet) Compile() error {
	r.once.Do(func() {
		r.include, r.err = Compile(r.Include)
		if r.err != nil {
			return
		}
		r.exclude, r.err = Compile(r.Exclude)
	})
	return r.err
}

// Relevant applies the precedence rules: exclusion first, then non-empty
// includes must match, then empty includes accept everything.
func (r *RuleSet) Relevant(path string) bool {
	if err := r.Compile(); err != nil {
		return false
	}
	if r.exclude.Matches(path) {
		return false
	}
	if len(r.Include) == 0 {
		return true
	}
	return r.include.Matches(path)
}
