// Package rewriter strips tracking query parameters using compiled provider rules
package rewriter

import (
	"net/url"
	"strings"

	"github.com/bnema/linkers/internal/rules"
)

// Result is the outcome of a rewrite. Changed is false when the URL came back
// exactly as it went in, even if a provider matched.
type Result struct {
	URL     string
	Changed bool
}

// queryPair is one raw key=value segment of a query string
type queryPair struct {
	key string // decoded, used for matching only
	raw string // original bytes, written back untouched
}

// Rewrite removes the query parameters named by the matching providers.
//
// canonicalized tells whether an earlier pass already replaced the URL; in
// that case the URL is reported even when no provider applies or an
// exception vetoes stripping. The second return value is false when there is
// nothing to report.
func Rewrite(rawURL string, canonicalized bool, providers []*rules.Provider) (Result, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Result{}, false
	}

	unchanged := func() (Result, bool) {
		if canonicalized {
			return Result{URL: rawURL, Changed: true}, true
		}
		return Result{}, false
	}

	if len(providers) == 0 {
		return unchanged()
	}

	pairs := splitQuery(u.RawQuery)
	removed := 0

	for _, p := range providers {
		if p.Excepted(rawURL) {
			return unchanged()
		}

		kept := make([]queryPair, 0, len(pairs))
		for _, pair := range pairs {
			if p.Strips(pair.key) {
				removed++
				continue
			}
			kept = append(kept, pair)
		}
		pairs = kept
	}

	if removed == 0 {
		return Result{URL: rawURL, Changed: canonicalized}, true
	}

	return Result{URL: replaceQuery(rawURL, pairs), Changed: true}, true
}

// Apply matches rawURL against set and rewrites it in one step
func Apply(set *rules.RuleSet, rawURL string, canonicalized bool) (Result, bool) {
	return Rewrite(rawURL, canonicalized, set.Match(rawURL))
}

func splitQuery(rawQuery string) []queryPair {
	if rawQuery == "" {
		return nil
	}

	segments := strings.Split(rawQuery, "&")
	pairs := make([]queryPair, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}

		key, _, _ := strings.Cut(seg, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		pairs = append(pairs, queryPair{key: key, raw: seg})
	}
	return pairs
}

// replaceQuery splices the kept pairs back into rawURL, leaving scheme, host,
// path and fragment byte-for-byte intact. No bare "?" is left behind.
func replaceQuery(rawURL string, pairs []queryPair) string {
	beforeFragment, fragment, hasFragment := strings.Cut(rawURL, "#")
	base, _, _ := strings.Cut(beforeFragment, "?")

	var b strings.Builder
	b.Grow(len(rawURL))
	b.WriteString(base)

	for i, p := range pairs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.raw)
	}

	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}
