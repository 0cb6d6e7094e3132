package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/bnema/linkers/internal/models"
)

// CanonicalInfo describes one canonical candidate reported by the AMP service
type CanonicalInfo struct {
	Domain        string  `json:"domain"`
	IsAlt         bool    `json:"is_alt"`
	IsAMP         bool    `json:"is_amp"`
	IsCached      *bool   `json:"is_cached"`
	IsValid       bool    `json:"is_valid"`
	Type          string  `json:"type"`
	URL           string  `json:"url"`
	URLSimilarity float64 `json:"url_similarity"`
}

// OriginInfo describes the URL that was submitted
type OriginInfo struct {
	Domain   string `json:"domain"`
	IsAMP    bool   `json:"is_amp"`
	IsCached bool   `json:"is_cached"`
	IsValid  bool   `json:"is_valid"`
	URL      string `json:"url"`
}

// AMPItem is one entry of the conversion response
type AMPItem struct {
	AMPCanonical *CanonicalInfo `json:"amp_canonical"`
	Canonical    *CanonicalInfo `json:"canonical"`
	Origin       OriginInfo     `json:"origin"`
}

// target picks the non-AMP canonical, preferring amp_canonical
func (i AMPItem) target() string {
	for _, c := range []*CanonicalInfo{i.AMPCanonical, i.Canonical} {
		if c != nil && !c.IsAMP && c.URL != "" {
			return c.URL
		}
	}
	return ""
}

// AMP asks an AmputatorBot-compatible service for the canonical page of an AMP URL
type AMP struct {
	endpoint string
	getter   Getter
}

// NewAMP creates an AMP resolver. An empty endpoint selects the public service.
func NewAMP(endpoint string, g Getter) *AMP {
	if endpoint == "" {
		endpoint = models.DefaultAMPEndpoint
	}
	return &AMP{endpoint: strings.TrimSuffix(endpoint, "?"), getter: g}
}

// Name returns the stage name
func (a *AMP) Name() string {
	return "amp"
}

// Resolve returns the canonical URL, or "" when the service has none
func (a *AMP) Resolve(ctx context.Context, rawURL string) (string, error) {
	q := url.Values{}
	q.Set("gac", "true")
	q.Set("md", "3")
	q.Set("q", rawURL)

	var items []AMPItem
	if err := getJSON(ctx, a.getter, a.endpoint+"?"+q.Encode(), &items); err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}
	return items[0].target(), nil
}
