package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/quaestor/internal/models"
)

// SiteStorage - persistence for crawl roots
type SiteStorage interface {
	// UpsertSite inserts the site or refreshes its crawl time, returning
	// the stored row with its surrogate id.
	UpsertSite(ctx context.Context, baseURL string, crawlTime time.Time) (*models.Site, error)
	GetSite(ctx context.Context, id int64) (*models.Site, error)
	GetSiteByURL(ctx context.Context, baseURL string) (*models.Site, error)
	ListSites(ctx context.Context) ([]*models.Site, error)
	DeleteSite(ctx context.Context, id int64) error
}

// PageStorage - persistence for crawled pages
type PageStorage interface {
	// UpsertPage inserts or updates the row keyed by (site_id, url) and
	// returns it with its id. Called first with an empty hash so link rows
	// can reference the page while it is still being processed.
	UpsertPage(ctx context.Context, siteID int64, url, hash string, crawlTime time.Time, pageErr string) (*models.Page, error)
	// UpdatePageHash finalizes a successfully processed page.
	UpdatePageHash(ctx context.Context, id int64, hash string) error
	// UpdatePageError records a failure and backdates crawl_time by one
	// second so the page falls below the stale threshold next run.
	UpdatePageError(ctx context.Context, id int64, pageErr string) error
	GetPage(ctx context.Context, id int64) (*models.Page, error)
	// ListPagesForSite returns every page of a site; used to prime the
	// engine's page cache at run start.
	ListPagesForSite(ctx context.Context, siteID int64) ([]*models.Page, error)
	// DeleteStalePages removes the site's pages with crawl_time strictly
	// before the cutoff, returning the number of rows removed.
	DeleteStalePages(ctx context.Context, siteID int64, before time.Time) (int64, error)
}

// LinkStorage - persistence for scored outbound links
type LinkStorage interface {
	// UpsertLink inserts or updates the row keyed by (site_id, page_id,
	// url); conflicts refresh score, keywords, and crawl time.
	UpsertLink(ctx context.Context, link *models.Link) (*models.Link, error)
	// ListLinksForSite returns links ordered by descending score. An empty
	// keyword means no filter; limit <= 0 means the default cap.
	ListLinksForSite(ctx context.Context, siteID int64, keyword string, limit int) ([]*models.Link, error)
	ListLinksForPage(ctx context.Context, siteID, pageID int64) ([]*models.Link, error)
	// DeleteStaleLinks removes the site's links with crawl_time strictly
	// before the cutoff, returning the number of rows removed.
	DeleteStaleLinks(ctx context.Context, siteID int64, before time.Time) (int64, error)
}

// StorageManager aggregates the entity storages over one database handle.
type StorageManager interface {
	Sites() SiteStorage
	Pages() PageStorage
	Links() LinkStorage
	Close() error
}
