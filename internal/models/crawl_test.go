package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlOptionsValidate(t *testing.T) {
	valid := DefaultCrawlOptions("https://example.gov")
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*CrawlOptions)
	}{
		{name: "empty seed", mutate: func(o *CrawlOptions) { o.SeedURL = "" }},
		{name: "bad scheme", mutate: func(o *CrawlOptions) { o.SeedURL = "ftp://example.gov" }},
		{name: "no host", mutate: func(o *CrawlOptions) { o.SeedURL = "https://" }},
		{name: "zero workers", mutate: func(o *CrawlOptions) { o.Workers = 0 }},
		{name: "zero stale hours", mutate: func(o *CrawlOptions) { o.StaleHours = 0 }},
		{name: "negative max count", mutate: func(o *CrawlOptions) { o.MaxCount = -1 }},
		{name: "zero max components", mutate: func(o *CrawlOptions) { o.MaxComponents = 0 }},
		{name: "negative max depth", mutate: func(o *CrawlOptions) { o.MaxDepth = -1 }},
		{name: "negative max url params", mutate: func(o *CrawlOptions) {
			limit := -1
			o.MaxURLParams = &limit
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultCrawlOptions("https://example.gov")
			tt.mutate(&opts)
			assert.Error(t, opts.Validate())
		})
	}
}

func TestCrawlOptionsSiteBase(t *testing.T) {
	opts := DefaultCrawlOptions("https://example.gov/finance/budget?year=2026")
	base, err := opts.SiteBase()
	require.NoError(t, err)
	assert.Equal(t, "https://example.gov", base.String())
}

func TestVocabularyWeight(t *testing.T) {
	vocab := DefaultVocabulary()

	w, ok := vocab.Weight("budget")
	assert.True(t, ok)
	assert.Equal(t, 1.0, w)

	_, ok = vocab.Weight("procurement")
	assert.False(t, ok)
}

func TestVocabularyKeywordsSorted(t *testing.T) {
	keys := DefaultVocabulary().Keywords()
	require.NotEmpty(t, keys)
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i])
	}
}
