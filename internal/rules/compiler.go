package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/bnema/linkers/internal/logger"
	"github.com/bnema/linkers/internal/models"
)

// Compiler turns a rule document into a RuleSet
type Compiler struct {
	opts  CompileOptions
	stats Stats
}

// Stats tracks compilation statistics
type Stats struct {
	Total       int
	Compiled    int
	Skipped     int
	SkipReasons map[string]int // Detailed breakdown of dropped providers
	Dropped     []string       // Names of dropped providers, in document order
}

// Skip reason constants
const (
	SkipMalformedEntry    = "malformed-entry"
	SkipMissingURLPattern = "missing-url-pattern"
	SkipInvalidPattern    = "invalid-pattern"
)

// NewCompiler creates a new compiler
func NewCompiler(opts CompileOptions) *Compiler {
	return &Compiler{
		opts: opts,
		stats: Stats{
			SkipReasons: make(map[string]int),
		},
	}
}

// Stats returns compilation statistics
func (c *Compiler) Stats() Stats {
	return c.stats
}

// skip records a dropped provider with reason
func (c *Compiler) skip(name, reason string, err error) {
	c.stats.Skipped++
	c.stats.SkipReasons[reason]++
	c.stats.Dropped = append(c.stats.Dropped, name)
	logger.Debug("dropping provider", "provider", name, "reason", reason, "error", err)
}

// Compile builds a RuleSet from doc. Providers that fail to decode or whose
// patterns do not compile are left out; they never fail the whole set.
func (c *Compiler) Compile(doc *models.RuleDocument) *RuleSet {
	set := &RuleSet{}
	if doc == nil {
		return set
	}

	for _, entry := range doc.Providers {
		c.stats.Total++

		var spec models.RuleSpec
		if err := decodeSpec(entry.Raw, &spec); err != nil {
			c.skip(entry.Name, SkipMalformedEntry, err)
			continue
		}

		if spec.URLPattern == nil {
			c.skip(entry.Name, SkipMissingURLPattern, nil)
			continue
		}

		provider, err := compileProvider(entry.Name, spec, c.opts)
		if err != nil {
			c.skip(entry.Name, SkipInvalidPattern, err)
			continue
		}

		c.stats.Compiled++
		set.providers = append(set.providers, provider)
	}

	return set
}

// Compile is a shorthand for a one-off compilation
func Compile(doc *models.RuleDocument, opts CompileOptions) (*RuleSet, Stats) {
	c := NewCompiler(opts)
	set := c.Compile(doc)
	return set, c.Stats()
}

// decodeSpec rejects anything that is not a JSON object of the RuleSpec shape
func decodeSpec(raw json.RawMessage, spec *models.RuleSpec) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("provider entry is not an object")
	}
	return json.Unmarshal(trimmed, spec)
}

func compileProvider(name string, spec models.RuleSpec, opts CompileOptions) (*Provider, error) {
	urlPattern, err := compilePattern(*spec.URLPattern, opts)
	if err != nil {
		return nil, fmt.Errorf("urlPattern: %w", err)
	}

	p := &Provider{
		Name:             name,
		URLPattern:       urlPattern,
		CompleteProvider: spec.CompleteProvider,
		ForceRedirection: spec.ForceRedirection,
	}

	lists := []struct {
		field    string
		patterns []string
		dst      *[]*regexp.Regexp
	}{
		{"rules", spec.Rules, &p.Rules},
		{"referralMarketing", spec.ReferralMarketing, &p.ReferralMarketing},
		{"rawRules", spec.RawRules, &p.RawRules},
		{"exceptions", spec.Exceptions, &p.Exceptions},
		{"redirections", spec.Redirections, &p.Redirections},
	}

	for _, l := range lists {
		compiled, err := compileList(l.field, l.patterns, opts)
		if err != nil {
			return nil, err
		}
		*l.dst = compiled
	}

	return p, nil
}
