package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalizer canonicalizes candidate URLs against a site base. The same
// policy is applied at extraction and at enqueue time, so normalization is
// idempotent: normalize(normalize(u)) == normalize(u).
type Normalizer struct {
	base      *url.URL
	maxParams *int // nil = keep all query parameters, 0 = strip all
}

// NewNormalizer creates a normalizer for the given site base
// (scheme://host). maxParams controls how many leading query parameters are
// retained; nil keeps every parameter.
func NewNormalizer(base *url.URL, maxParams *int) *Normalizer {
	return &Normalizer{base: base, maxParams: maxParams}
}

// Normalize resolves the candidate against the site base, enforces the
// http/https scheme, strips the fragment, and applies the query-parameter
// retention policy.
func (n *Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if strings.HasPrefix(raw, "#") {
		return "", fmt.Errorf("fragment-only url %q", raw)
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable url %q: %w", raw, err)
	}

	resolved := n.base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", resolved.Scheme, raw)
	}
	if resolved.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	resolved.Fragment = ""
	resolved.RawQuery = truncateQuery(resolved.RawQuery, n.maxParams)
	return resolved.String(), nil
}

// truncateQuery keeps the first max parameters of a raw query string in
// their original order. nil keeps everything; 0 strips the query entirely.
// Raw splitting avoids url.Values, whose map ordering would reorder
// parameters and break idempotency.
func truncateQuery(rawQuery string, max *int) string {
	if max == nil || rawQuery == "" {
		return rawQuery
	}
	if *max == 0 {
		return ""
	}
	params := strings.Split(rawQuery, "&")
	if len(params) <= *max {
		return rawQuery
	}
	return strings.Join(params[:*max], "&")
}

// pathComponents counts the slash-delimited segments of a URL path with
// leading and trailing slashes removed; "/" and "" both count zero.
func pathComponents(path string) int {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "/"))
}
