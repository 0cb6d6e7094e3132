package rules

import "regexp"

// Provider is a compiled provider definition
type Provider struct {
	Name             string
	URLPattern       *regexp.Regexp
	CompleteProvider bool
	Rules            []*regexp.Regexp
	// The following are compiled so a bad pattern still drops the provider,
	// but the rewriter does not apply them.
	ReferralMarketing []*regexp.Regexp
	RawRules          []*regexp.Regexp
	Redirections      []*regexp.Regexp
	ForceRedirection  bool
	Exceptions        []*regexp.Regexp
}

// Matches reports whether the provider covers rawURL. The pattern runs
// against the whole unparsed string, so rules may be scoped to a path.
func (p *Provider) Matches(rawURL string) bool {
	return p.URLPattern.MatchString(rawURL)
}

// Excepted reports whether one of the provider's exceptions vetoes rawURL
func (p *Provider) Excepted(rawURL string) bool {
	return matchAny(p.Exceptions, rawURL)
}

// Strips reports whether a query parameter with this key is tracking noise
func (p *Provider) Strips(key string) bool {
	return matchAny(p.Rules, key)
}

// RuleSet is an ordered, immutable collection of providers. It is safe for
// concurrent use once built.
type RuleSet struct {
	providers []*Provider
}

// NewRuleSet wraps already compiled providers
func NewRuleSet(providers ...*Provider) *RuleSet {
	return &RuleSet{providers: providers}
}

// Len returns the number of compiled providers
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.providers)
}

// Providers returns the providers in compilation order. Callers must not modify the slice.
func (s *RuleSet) Providers() []*Provider {
	if s == nil {
		return nil
	}
	return s.providers
}

// Match returns every provider whose URL pattern matches rawURL, in rule set order
func (s *RuleSet) Match(rawURL string) []*Provider {
	if s == nil {
		return nil
	}

	var matched []*Provider
	for _, p := range s.providers {
		if p.Matches(rawURL) {
			matched = append(matched, p)
		}
	}
	return matched
}
