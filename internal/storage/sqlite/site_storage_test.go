package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/models"
)

// setupTestDB creates a test database and returns cleanup function
func setupTestDB(t *testing.T) (*SQLiteDB, func()) {
	tempDir := t.TempDir()
	dbPath := tempDir + "/test.db"

	config := &common.StorageConfig{
		Path:          dbPath,
		CacheSizeMB:   10,
		WALMode:       false,
		BusyTimeoutMS: 5000,
	}

	logger := arbor.NewLogger()
	db, err := NewSQLiteDB(logger, config)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

func TestSiteStorage_UpsertSite(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	storage := NewSiteStorage(db, logger)
	ctx := context.Background()

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	site, err := storage.UpsertSite(ctx, "https://example.gov", first)
	require.NoError(t, err)
	require.NotNil(t, site)
	assert.Greater(t, site.ID, int64(0))
	assert.Equal(t, "https://example.gov", site.URL)
	assert.Equal(t, first, site.CrawlTime)

	// Upserting the same URL refreshes the timestamp, keeps the id
	second := first.Add(2 * time.Hour)
	again, err := storage.UpsertSite(ctx, "https://example.gov", second)
	require.NoError(t, err)
	assert.Equal(t, site.ID, again.ID)
	assert.Equal(t, second, again.CrawlTime)

	sites, err := storage.ListSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 1)
}

func TestSiteStorage_GetSite(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	storage := NewSiteStorage(db, logger)
	ctx := context.Background()

	site, err := storage.UpsertSite(ctx, "https://example.gov", time.Now().UTC())
	require.NoError(t, err)

	got, err := storage.GetSite(ctx, site.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, site.URL, got.URL)

	byURL, err := storage.GetSiteByURL(ctx, "https://example.gov")
	require.NoError(t, err)
	require.NotNil(t, byURL)
	assert.Equal(t, site.ID, byURL.ID)

	// Absent rows return nil without error
	missing, err := storage.GetSite(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	missingURL, err := storage.GetSiteByURL(ctx, "https://other.gov")
	require.NoError(t, err)
	assert.Nil(t, missingURL)
}

func TestSiteStorage_DeleteSiteCascades(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := arbor.NewLogger()
	sites := NewSiteStorage(db, logger)
	pages := NewPageStorage(db, logger)
	links := NewLinkStorage(db, logger)
	ctx := context.Background()

	now := time.Now().UTC()
	site, err := sites.UpsertSite(ctx, "https://example.gov", now)
	require.NoError(t, err)

	page, err := pages.UpsertPage(ctx, site.ID, "https://example.gov/finance", "", now, "")
	require.NoError(t, err)

	_, err = links.UpsertLink(ctx, &models.Link{
		SiteID:    site.ID,
		PageID:    page.ID,
		URL:       "https://example.gov/budget",
		Text:      "Budget",
		Score:     1.0,
		Keywords:  ";budget;",
		CrawlTime: now,
	})
	require.NoError(t, err)

	require.NoError(t, sites.DeleteSite(ctx, site.ID))

	remainingPages, err := pages.ListPagesForSite(ctx, site.ID)
	require.NoError(t, err)
	assert.Empty(t, remainingPages)

	remainingLinks, err := links.ListLinksForSite(ctx, site.ID, "", 0)
	require.NoError(t, err)
	assert.Empty(t, remainingLinks)

	// Deleting again reports not found
	err = sites.DeleteSite(ctx, site.ID)
	assert.Error(t, err)
}
