package rules

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/linkers/internal/logger"
	"github.com/bnema/linkers/internal/models"
)

// Downloader fetches a remote document
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Load reads a rule document from an http(s) URL or a local path
func Load(ctx context.Context, source string, d Downloader) (*models.RuleDocument, error) {
	var (
		data []byte
		err  error
	)

	if isRemote(source) {
		logger.Info("downloading rules", "source", source)
		data, err = d.Fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", source, err)
	}

	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing rules from %s: %w", source, err)
	}
	return doc, nil
}

// LoadAndCompile loads the document and compiles it in one step
func LoadAndCompile(ctx context.Context, source string, d Downloader, opts CompileOptions) (*RuleSet, Stats, error) {
	doc, err := Load(ctx, source, d)
	if err != nil {
		return nil, Stats{}, err
	}

	set, stats := Compile(doc, opts)
	logger.Info("rules compiled",
		"providers", stats.Total,
		"compiled", stats.Compiled,
		"dropped", stats.Skipped)
	return set, stats, nil
}

func isRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
