package ignore

import (
	"fmt"
	"regexp"
)

// Rules is a compiled, immutable set of exclusion patterns: caller-supplied
// patterns followed by DefaultExcludePatterns. Safe for concurrent use.
type Rules struct {
	custom   []*regexp.Regexp
	defaults []*regexp.Regexp
}

// Compile builds the effective rule set for one discovery pass.
// Any invalid pattern fails the whole set.
func Compile(customPatterns []string) (*Rules, error) {
	custom, err := compileAll(customPatterns)
	if err != nil {
		return nil, err
	}
	defaults, err := compileAll(DefaultExcludePatterns)
	if err != nil {
		return nil, err
	}
	return &Rules{custom: custom, defaults: defaults}, nil
}

// Excluded reports whether relativePath (slash-separated, relative to the
// walk root) matches any rule.
func (r *Rules) Excluded(relativePath string) bool {
	return matchAny(r.custom, relativePath) || matchAny(r.defaults, relativePath)
}

// PruneDir reports whether a directory can be skipped entirely. Only the
// built-in rules prune: they are component-anchored, so every file below a
// matching directory would be excluded anyway. Caller patterns may be
// anchored arbitrarily and are applied per file.
func (r *Rules) PruneDir(relativePath string) bool {
	return matchAny(r.defaults, relativePath)
}

// Patterns returns the source of every rule, caller patterns first.
func (r *Rules) Patterns() []string {
	out := make([]string, 0, len(r.custom)+len(r.defaults))
	for _, re := range r.custom {
		out = append(out, re.String())
	}
	for _, re := range r.defaults {
		out = append(out, re.String())
	}
	return out
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(rules []*regexp.Regexp, path string) bool {
	for _, re := range rules {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
