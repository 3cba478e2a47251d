package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T, maxParams *int) *Normalizer {
	t.Helper()
	base, err := url.Parse("https://example.com")
	require.NoError(t, err)
	return NewNormalizer(base, maxParams)
}

func intPtr(v int) *int { return &v }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		maxParams *int
		input     string
		want      string
		wantErr   bool
	}{
		{name: "absolute url", input: "https://example.com/about", want: "https://example.com/about"},
		{name: "relative path", input: "/news/budget", want: "https://example.com/news/budget"},
		{name: "relative without slash", input: "contact", want: "https://example.com/contact"},
		{name: "strips fragment", input: "/about#team", want: "https://example.com/about"},
		{name: "keeps query when unlimited", input: "/s?a=1&b=2&c=3", want: "https://example.com/s?a=1&b=2&c=3"},
		{name: "keeps first params", maxParams: intPtr(2), input: "/s?a=1&b=2&c=3", want: "https://example.com/s?a=1&b=2"},
		{name: "strips all params", maxParams: intPtr(0), input: "/s?a=1&b=2", want: "https://example.com/s"},
		{name: "other host preserved", input: "https://other.org/page", want: "https://other.org/page"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "fragment only", input: "#main", wantErr: true},
		{name: "mailto", input: "mailto:team@example.com", wantErr: true},
		{name: "javascript", input: "javascript:void(0)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNormalizer(t, tt.maxParams)
			got, err := n.Normalize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"/news?page=2&sort=desc&filter=x",
		"https://example.com/a/b/c#frag",
		"relative/path",
	}

	for _, maxParams := range []*int{nil, intPtr(0), intPtr(1)} {
		n := newTestNormalizer(t, maxParams)
		for _, input := range inputs {
			once, err := n.Normalize(input)
			require.NoError(t, err)
			twice, err := n.Normalize(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		}
	}
}

func TestTruncateQueryPreservesOrder(t *testing.T) {
	// Raw splitting must keep document order; url.Values would sort keys
	assert.Equal(t, "z=1&a=2", truncateQuery("z=1&a=2&m=3", intPtr(2)))
	assert.Equal(t, "z=1&a=2&m=3", truncateQuery("z=1&a=2&m=3", intPtr(5)))
	assert.Equal(t, "", truncateQuery("z=1&a=2", intPtr(0)))
	assert.Equal(t, "z=1&a=2", truncateQuery("z=1&a=2", nil))
}

func TestPathComponents(t *testing.T) {
	assert.Equal(t, 0, pathComponents(""))
	assert.Equal(t, 0, pathComponents("/"))
	assert.Equal(t, 1, pathComponents("/about"))
	assert.Equal(t, 3, pathComponents("/a/b/c"))
	assert.Equal(t, 3, pathComponents("/a/b/c/"))
}
