package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bnema/linkers/internal/models"
)

// ErrStatus is wrapped by errors for non-200 responses
var ErrStatus = errors.New("unexpected HTTP status")

// maxBody caps response bodies; the ClearURLs document is well under this
const maxBody = 16 << 20

// Fetcher performs GET requests over a shared, pooled client
type Fetcher struct {
	client    *http.Client
	retries   int
	userAgent string
}

// New creates a new fetcher from config
func New(cfg models.HTTPConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retries := cfg.Retries
	if retries == 0 {
		retries = 3
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = models.DefaultUserAgent
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		retries:   retries,
		userAgent: userAgent,
	}
}

// Client exposes the underlying HTTP client for callers that need other verbs
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// UserAgent returns the User-Agent header sent with every request
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch downloads content from a URL with retries
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for i := 0; i < f.retries; i++ {
		if i > 0 {
			// Linear backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * time.Second):
			}
		}

		data, err := f.Get(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed after %d retries: %w", f.retries, lastErr)
}

// Get performs a single GET without retrying
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}
