// Package cleaner finds URLs in free text and returns their tracking-free forms
package cleaner

import (
	"context"
	"regexp"

	"github.com/bnema/linkers/internal/logger"
	"github.com/bnema/linkers/internal/pipeline"
	"github.com/bnema/linkers/internal/rewriter"
	"github.com/bnema/linkers/internal/rules"
)

// candidatePattern is loose: scheme, then anything up to whitespace. \s alone is
// ASCII-only in RE2, so Unicode separators (NBSP, U+3000, NEL) end a token too.
var candidatePattern = regexp.MustCompile(`https?://[^\s\p{Z}\x{0085}\v]+`)

// Link is the cleaning outcome for one URL found in the text
type Link struct {
	Original string   `json:"original" yaml:"original"`
	Cleaned  string   `json:"cleaned" yaml:"cleaned"`
	Included bool     `json:"included" yaml:"included"`
	Stages   []string `json:"stages,omitempty" yaml:"stages,omitempty"`
}

// Cleaner ties the compiled rules and the canonicalization pipeline together.
// It keeps no per-call state; one Cleaner serves any number of goroutines.
type Cleaner struct {
	rules    *rules.RuleSet
	pipeline *pipeline.Pipeline
}

// New creates a cleaner. A nil pipeline skips canonicalization.
func New(set *rules.RuleSet, p *pipeline.Pipeline) *Cleaner {
	return &Cleaner{rules: set, pipeline: p}
}

// Candidates returns the URL-like tokens of text in order of appearance
func Candidates(text string) []string {
	return candidatePattern.FindAllString(text, -1)
}

// Clean returns the cleaned form of every URL in text that actually changed,
// in order of appearance. Repeated URLs are reported each time.
func (c *Cleaner) Clean(ctx context.Context, text string) []string {
	var out []string
	for _, link := range c.Inspect(ctx, text) {
		if link.Included {
			out = append(out, link.Cleaned)
		}
	}
	return out
}

// Inspect runs every candidate of text through the engine and reports all of
// them, included or not
func (c *Cleaner) Inspect(ctx context.Context, text string) []Link {
	candidates := Candidates(text)
	links := make([]Link, 0, len(candidates))

	for _, candidate := range candidates {
		links = append(links, c.inspect(ctx, candidate))
	}
	return links
}

// CleanURL cleans a single URL. The bool is false when the result would not be
// worth reporting.
func (c *Cleaner) CleanURL(ctx context.Context, rawURL string) (string, bool) {
	link := c.inspect(ctx, rawURL)
	return link.Cleaned, link.Included
}

func (c *Cleaner) inspect(ctx context.Context, candidate string) Link {
	link := Link{Original: candidate, Cleaned: candidate}

	outcome := c.pipeline.Canonicalize(ctx, candidate)
	link.Stages = outcome.Stages

	result, ok := rewriter.Apply(c.rules, outcome.URL, outcome.Changed)
	if !ok {
		return link
	}

	link.Cleaned = result.URL
	// Any byte difference counts; length is irrelevant.
	link.Included = result.Changed && result.URL != candidate

	if link.Included {
		logger.Debug("url cleaned", "original", candidate, "cleaned", result.URL)
	}
	return link
}
