package rules

import (
	"fmt"
	"regexp"
)

// CompileOptions tunes how rule patterns are compiled
type CompileOptions struct {
	CaseInsensitive bool // prefix every pattern with (?i)
}

// compilePattern compiles a single rule pattern. Patterns are RE2; JavaScript
// lookarounds and backreferences found in some upstream rules fail here.
func compilePattern(pattern string, opts CompileOptions) (*regexp.Regexp, error) {
	if opts.CaseInsensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// compileList compiles every pattern of a list or fails on the first bad one
func compileList(field string, patterns []string, opts CompileOptions) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := compilePattern(p, opts)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// matchAny reports whether any of the patterns matches s
func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
