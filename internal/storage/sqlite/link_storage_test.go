package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/models"
)

// linkFixture creates a site and page for link tests
func linkFixture(t *testing.T, db *SQLiteDB, runTime time.Time) (int64, int64) {
	t.Helper()
	logger := arbor.NewLogger()
	ctx := context.Background()

	site, err := NewSiteStorage(db, logger).UpsertSite(ctx, "https://example.gov", runTime)
	require.NoError(t, err)
	page, err := NewPageStorage(db, logger).UpsertPage(ctx, site.ID, "https://example.gov/finance", "", runTime, "")
	require.NoError(t, err)
	return site.ID, page.ID
}

func TestLinkStorage_UpsertLink(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	links := NewLinkStorage(db, logger)
	ctx := context.Background()

	runTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	siteID, pageID := linkFixture(t, db, runTime)

	link, err := links.UpsertLink(ctx, &models.Link{
		SiteID:    siteID,
		PageID:    pageID,
		URL:       "https://example.gov/budget",
		Text:      "Budget",
		Score:     1.5,
		Keywords:  ";budget;finance;",
		CrawlTime: runTime,
	})
	require.NoError(t, err)
	assert.Greater(t, link.ID, int64(0))

	// Conflict on (site, page, url) refreshes score, keywords, crawl time
	updated, err := links.UpsertLink(ctx, &models.Link{
		SiteID:    siteID,
		PageID:    pageID,
		URL:       "https://example.gov/budget",
		Text:      "Changed Anchor",
		Score:     0.9,
		Keywords:  ";budget;",
		CrawlTime: runTime.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, link.ID, updated.ID)

	stored, err := links.ListLinksForPage(ctx, siteID, pageID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 0.9, stored[0].Score)
	assert.Equal(t, ";budget;", stored[0].Keywords)
	assert.Equal(t, runTime.Add(time.Hour), stored[0].CrawlTime)
	// Text is set on insert and not refreshed by conflicts
	assert.Equal(t, "Budget", stored[0].Text)
}

func TestLinkStorage_ListLinksForSite(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	links := NewLinkStorage(db, logger)
	ctx := context.Background()

	runTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	siteID, pageID := linkFixture(t, db, runTime)

	fixtures := []struct {
		url      string
		score    float64
		keywords string
	}{
		{"https://example.gov/budget", 1.5, ";budget;finance;"},
		{"https://example.gov/contact", 1.0, ";contact;"},
		{"https://example.gov/minutes", 1.8, ";minutes;budget;"},
	}
	for _, f := range fixtures {
		_, err := links.UpsertLink(ctx, &models.Link{
			SiteID:    siteID,
			PageID:    pageID,
			URL:       f.url,
			Text:      "x",
			Score:     f.score,
			Keywords:  f.keywords,
			CrawlTime: runTime,
		})
		require.NoError(t, err)
	}

	// Unfiltered: descending by score
	all, err := links.ListLinksForSite(ctx, siteID, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://example.gov/minutes", all[0].URL)
	assert.Equal(t, "https://example.gov/budget", all[1].URL)
	assert.Equal(t, "https://example.gov/contact", all[2].URL)

	// Keyword filter matches the ;kw; wrapped form only
	budget, err := links.ListLinksForSite(ctx, siteID, "budget", 0)
	require.NoError(t, err)
	require.Len(t, budget, 2)

	contact, err := links.ListLinksForSite(ctx, siteID, "contact", 0)
	require.NoError(t, err)
	require.Len(t, contact, 1)
	assert.Equal(t, "https://example.gov/contact", contact[0].URL)

	// A keyword that is a substring of another must not match it
	fin, err := links.ListLinksForSite(ctx, siteID, "fin", 0)
	require.NoError(t, err)
	assert.Empty(t, fin)

	// Limit caps results after ordering
	top, err := links.ListLinksForSite(ctx, siteID, "", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "https://example.gov/minutes", top[0].URL)
}

func TestLinkStorage_DeleteStaleLinks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	links := NewLinkStorage(db, logger)
	ctx := context.Background()

	runTime := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	cutoff := runTime.Add(-24 * time.Hour)
	siteID, pageID := linkFixture(t, db, runTime)

	_, err := links.UpsertLink(ctx, &models.Link{
		SiteID: siteID, PageID: pageID,
		URL: "https://example.gov/old", Text: "old",
		Score: 1.0, Keywords: ";report;", CrawlTime: cutoff.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = links.UpsertLink(ctx, &models.Link{
		SiteID: siteID, PageID: pageID,
		URL: "https://example.gov/edge", Text: "edge",
		Score: 1.0, Keywords: ";report;", CrawlTime: cutoff,
	})
	require.NoError(t, err)
	_, err = links.UpsertLink(ctx, &models.Link{
		SiteID: siteID, PageID: pageID,
		URL: "https://example.gov/new", Text: "new",
		Score: 1.0, Keywords: ";report;", CrawlTime: runTime,
	})
	require.NoError(t, err)

	removed, err := links.DeleteStaleLinks(ctx, siteID, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := links.ListLinksForSite(ctx, siteID, "", 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
