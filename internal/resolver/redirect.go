package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/bnema/linkers/internal/logger"
	"github.com/bnema/linkers/internal/models"
)

// RedirectStatus is the status reported by the redirect service
type RedirectStatus string

// Redirect service statuses
const (
	StatusOK           RedirectStatus = "OK"
	StatusBadRequest   RedirectStatus = "BAD_REQUEST"
	StatusURLMalformed RedirectStatus = "URL_MALFORMED"
)

// RedirectResponse is the redirect service payload
type RedirectResponse struct {
	ResultURL *string        `json:"resultUrl"`
	Status    RedirectStatus `json:"status"`
	URLs      []string       `json:"urls"`
}

// Redirect follows link-shortener redirects through a remote service
type Redirect struct {
	endpoint string
	getter   Getter
}

// NewRedirect creates a redirect resolver. An empty endpoint selects the public service.
func NewRedirect(endpoint string, g Getter) *Redirect {
	if endpoint == "" {
		endpoint = models.DefaultRedirectEndpoint
	}
	return &Redirect{endpoint: strings.TrimSuffix(endpoint, "/"), getter: g}
}

// Name returns the stage name
func (r *Redirect) Name() string {
	return "redirect"
}

// Resolve returns the final URL of the redirect chain, or "" when unknown.
// The status is informational; a resultUrl is used whatever it says.
func (r *Redirect) Resolve(ctx context.Context, rawURL string) (string, error) {
	var resp RedirectResponse
	if err := getJSON(ctx, r.getter, r.endpoint+"/"+url.PathEscape(rawURL), &resp); err != nil {
		return "", err
	}

	if resp.Status != StatusOK {
		logger.Debug("redirect service status", "url", rawURL, "status", resp.Status)
	}
	if resp.ResultURL == nil {
		return "", nil
	}
	return *resp.ResultURL, nil
}
