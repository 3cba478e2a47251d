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

// Pragmas are per-connection state, so they ride the DSN and the driver
// replays them on every connection the pool opens. With zero idle
// connections each statement below runs on a connection the pool just
// created, which is exactly where exec-time pragmas would be missing.
func TestForeignKeysEnforcedOnFreshConnections(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	db.DB().SetMaxIdleConns(0)
	ctx := context.Background()

	var enabled int
	require.NoError(t, db.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)

	// A link referencing nonexistent site and page rows must be rejected,
	// not silently stored as an orphan
	_, err := db.DB().ExecContext(ctx,
		`INSERT INTO links (site_id, page_id, url, text, score, keywords, crawl_time)
		 VALUES (999, 999, 'https://example.gov/orphan', '', 0, '', 0)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}

func TestDeleteSiteCascadesOnFreshConnections(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	db.DB().SetMaxIdleConns(0)

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

	var orphans int
	require.NoError(t, db.DB().QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM pages) + (SELECT COUNT(*) FROM links)`).Scan(&orphans))
	assert.Equal(t, 0, orphans)
}
