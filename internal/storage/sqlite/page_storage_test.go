package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestPageStorage_UpsertPage(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	sites := NewSiteStorage(db, logger)
	pages := NewPageStorage(db, logger)
	ctx := context.Background()

	runTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	site, err := sites.UpsertSite(ctx, "https://example.gov", runTime)
	require.NoError(t, err)

	// Phase one: empty hash reserves an id so links can reference the page
	page, err := pages.UpsertPage(ctx, site.ID, "https://example.gov/finance", "", runTime, "")
	require.NoError(t, err)
	assert.Greater(t, page.ID, int64(0))
	assert.Equal(t, "", page.Hash)
	assert.Equal(t, runTime, page.CrawlTime)
	assert.Equal(t, "", page.Error)

	// Same (site, url) conflicts onto the same row
	again, err := pages.UpsertPage(ctx, site.ID, "https://example.gov/finance", "", runTime.Add(time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, page.ID, again.ID)
	assert.Equal(t, runTime.Add(time.Hour), again.CrawlTime)
}

func TestPageStorage_UpsertPageWithError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	sites := NewSiteStorage(db, logger)
	pages := NewPageStorage(db, logger)
	ctx := context.Background()

	runTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	site, err := sites.UpsertSite(ctx, "https://example.gov", runTime)
	require.NoError(t, err)

	// Error rows are backdated one second below the run timestamp
	page, err := pages.UpsertPage(ctx, site.ID, "https://example.gov/broken", "", runTime, "render timeout")
	require.NoError(t, err)
	assert.Equal(t, runTime.Add(-time.Second), page.CrawlTime)
	assert.Equal(t, "render timeout", page.Error)
	assert.Equal(t, "", page.Hash)

	got, err := pages.GetPage(ctx, page.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "render timeout", got.Error)
	assert.Equal(t, runTime.Add(-time.Second), got.CrawlTime)
}

func TestPageStorage_UpdatePageHash(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	sites := NewSiteStorage(db, logger)
	pages := NewPageStorage(db, logger)
	ctx := context.Background()

	runTime := time.Now().UTC().Truncate(time.Second)
	site, err := sites.UpsertSite(ctx, "https://example.gov", runTime)
	require.NoError(t, err)

	page, err := pages.UpsertPage(ctx, site.ID, "https://example.gov/finance", "", runTime, "")
	require.NoError(t, err)

	require.NoError(t, pages.UpdatePageHash(ctx, page.ID, "abc123"))

	got, err := pages.GetPage(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, runTime, got.CrawlTime)

	// Unknown id is an error
	assert.Error(t, pages.UpdatePageHash(ctx, 99999, "zzz"))
}

func TestPageStorage_UpdatePageError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	sites := NewSiteStorage(db, logger)
	pages := NewPageStorage(db, logger)
	ctx := context.Background()

	runTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	site, err := sites.UpsertSite(ctx, "https://example.gov", runTime)
	require.NoError(t, err)

	page, err := pages.UpsertPage(ctx, site.ID, "https://example.gov/finance", "", runTime, "")
	require.NoError(t, err)

	require.NoError(t, pages.UpdatePageError(ctx, page.ID, "classifier failed"))

	got, err := pages.GetPage(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, "classifier failed", got.Error)
	assert.Equal(t, "", got.Hash)
	assert.Equal(t, runTime.Add(-time.Second), got.CrawlTime)
}

func TestPageStorage_DeleteStalePages(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	sites := NewSiteStorage(db, logger)
	pages := NewPageStorage(db, logger)
	ctx := context.Background()

	runTime := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	cutoff := runTime.Add(-24 * time.Hour)

	site, err := sites.UpsertSite(ctx, "https://example.gov", runTime)
	require.NoError(t, err)
	other, err := sites.UpsertSite(ctx, "https://other.gov", runTime)
	require.NoError(t, err)

	// Older than the cutoff: reaped
	_, err = pages.UpsertPage(ctx, site.ID, "https://example.gov/old", "h1", cutoff.Add(-time.Hour), "")
	require.NoError(t, err)
	// Exactly at the cutoff: kept (comparison is strict)
	_, err = pages.UpsertPage(ctx, site.ID, "https://example.gov/edge", "h2", cutoff, "")
	require.NoError(t, err)
	// Fresh: kept
	_, err = pages.UpsertPage(ctx, site.ID, "https://example.gov/new", "h3", runTime, "")
	require.NoError(t, err)
	// Another site's stale page must not be touched
	_, err = pages.UpsertPage(ctx, other.ID, "https://other.gov/old", "h4", cutoff.Add(-time.Hour), "")
	require.NoError(t, err)

	removed, err := pages.DeleteStalePages(ctx, site.ID, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := pages.ListPagesForSite(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	otherPages, err := pages.ListPagesForSite(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, otherPages, 1)
}

func TestPageStorage_ListPagesForSite(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	sites := NewSiteStorage(db, logger)
	pages := NewPageStorage(db, logger)
	ctx := context.Background()

	runTime := time.Now().UTC().Truncate(time.Second)
	site, err := sites.UpsertSite(ctx, "https://example.gov", runTime)
	require.NoError(t, err)

	urls := []string{
		"https://example.gov/budget",
		"https://example.gov/contact",
		"https://example.gov/finance",
	}
	for _, u := range urls {
		_, err := pages.UpsertPage(ctx, site.ID, u, "", runTime, "")
		require.NoError(t, err)
	}

	got, err := pages.ListPagesForSite(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	var gotURLs []string
	for _, p := range got {
		gotURLs = append(gotURLs, p.URL)
		assert.Equal(t, site.ID, p.SiteID)
	}
	assert.Equal(t, urls, gotURLs)
}
