// Package resolver implements the external lookups used to canonicalize URLs
// before tracking parameters are stripped.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
)

// Getter performs a single GET and returns the body
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

func getJSON(ctx context.Context, g Getter, url string, v any) error {
	body, err := g.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
