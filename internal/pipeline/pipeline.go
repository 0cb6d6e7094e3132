// Package pipeline runs best-effort canonicalization passes over a URL before
// tracking parameters are stripped.
package pipeline

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/linkers/internal/logger"
)

// Resolver looks up a more canonical form of a URL. It returns "" when it has
// nothing better to offer.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Stage wraps a resolver with its own deadline and toggle
type Stage struct {
	Resolver Resolver
	Timeout  time.Duration // per call; zero leaves only the caller's deadline
	Disabled bool
}

// Outcome is the working URL after all stages
type Outcome struct {
	URL     string
	Changed bool     // at least one stage replaced the URL
	Stages  []string // names of the stages that replaced it, in order
}

// Pipeline is an ordered list of stages. It holds no per-call state and is
// safe for concurrent use when its resolvers are.
type Pipeline struct {
	stages []Stage
}

// New creates a pipeline from stages, run in the given order
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Names returns the names of the enabled stages
func (p *Pipeline) Names() []string {
	if p == nil {
		return nil
	}

	var names []string
	for _, s := range p.stages {
		if s.active() {
			names = append(names, s.Resolver.Name())
		}
	}
	return names
}

// Canonicalize runs every enabled stage on the working URL. A failing stage
// leaves the URL as it was; it never aborts the remaining stages.
func (p *Pipeline) Canonicalize(ctx context.Context, rawURL string) Outcome {
	out := Outcome{URL: rawURL}
	if p == nil {
		return out
	}

	for _, s := range p.stages {
		if !s.active() {
			continue
		}

		next, ok := s.run(ctx, out.URL)
		if !ok {
			continue
		}

		logger.Debug("url canonicalized", "stage", s.Resolver.Name(), "from", out.URL, "to", next)
		out.URL = next
		out.Changed = true
		out.Stages = append(out.Stages, s.Resolver.Name())
	}

	return out
}

func (s Stage) active() bool {
	return !s.Disabled && s.Resolver != nil
}

// run calls the resolver and reports whether it produced a usable replacement
func (s Stage) run(ctx context.Context, current string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	next, err := s.Resolver.Resolve(ctx, current)
	if err != nil {
		logger.Debug("resolver failed", "stage", s.Resolver.Name(), "url", current, "error", err)
		return "", false
	}

	next = strings.TrimSpace(next)
	if next == "" || next == current {
		return "", false
	}

	if !isWebURL(next) {
		logger.Debug("resolver returned unusable url", "stage", s.Resolver.Name(), "result", next)
		return "", false
	}

	return next, true
}

// isWebURL accepts absolute http(s) URLs with a host
func isWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
