package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

// DefaultLinkLimit caps link queries when the caller does not set a limit
const DefaultLinkLimit = 100

// LinkStorage implements interfaces.LinkStorage on SQLite
type LinkStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewLinkStorage creates a new link storage instance
func NewLinkStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.LinkStorage {
	return &LinkStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertLink inserts or updates the row keyed by (site_id, page_id, url).
// Conflicts refresh score, keywords, and crawl time.
func (l *LinkStorage) UpsertLink(ctx context.Context, link *models.Link) (*models.Link, error) {
	tx, err := l.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO links (site_id, page_id, url, text, score, keywords, crawl_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id, page_id, url) DO UPDATE SET
			score = excluded.score,
			keywords = excluded.keywords,
			crawl_time = excluded.crawl_time
		RETURNING id`

	var id int64
	err = tx.QueryRowContext(ctx, query,
		link.SiteID, link.PageID, link.URL, link.Text, link.Score, link.Keywords, link.CrawlTime.Unix()).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit link upsert: %w", err)
	}

	stored := *link
	stored.ID = id
	stored.CrawlTime = time.Unix(link.CrawlTime.Unix(), 0).UTC()
	return &stored, nil
}

// ListLinksForSite returns the site's links ordered by descending score.
// An empty keyword means no filter; limit <= 0 applies the default cap.
func (l *LinkStorage) ListLinksForSite(ctx context.Context, siteID int64, keyword string, limit int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = DefaultLinkLimit
	}

	query := `SELECT id, site_id, page_id, url, text, score, keywords, crawl_time
		FROM links WHERE site_id = ?`
	args := []interface{}{siteID}

	if keyword != "" {
		// Keyword strings are ";kw1;kw2;" so a ";kw;" substring matches
		// exactly one keyword
		query += ` AND keywords LIKE ?`
		args = append(args, "%;"+keyword+";%")
	}

	query += ` ORDER BY score DESC, url LIMIT ?`
	args = append(args, limit)

	return l.queryLinks(ctx, query, args...)
}

// ListLinksForPage returns one page's links ordered by descending score
func (l *LinkStorage) ListLinksForPage(ctx context.Context, siteID, pageID int64) ([]*models.Link, error) {
	query := `SELECT id, site_id, page_id, url, text, score, keywords, crawl_time
		FROM links WHERE site_id = ? AND page_id = ? ORDER BY score DESC, url`
	return l.queryLinks(ctx, query, siteID, pageID)
}

// DeleteStaleLinks removes the site's links with crawl_time strictly before
// the cutoff
func (l *LinkStorage) DeleteStaleLinks(ctx context.Context, siteID int64, before time.Time) (int64, error) {
	tx, err := l.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM links WHERE site_id = ? AND crawl_time < ?`, siteID, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale links: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit stale link delete: %w", err)
	}

	if affected > 0 {
		l.logger.Debug().Int64("site_id", siteID).Int64("links", affected).Msg("Reaped stale links")
	}
	return affected, nil
}

func (l *LinkStorage) queryLinks(ctx context.Context, query string, args ...interface{}) ([]*models.Link, error) {
	rows, err := l.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []*models.Link
	for rows.Next() {
		var link models.Link
		var crawlTime int64
		if err := rows.Scan(&link.ID, &link.SiteID, &link.PageID, &link.URL,
			&link.Text, &link.Score, &link.Keywords, &crawlTime); err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		link.CrawlTime = time.Unix(crawlTime, 0).UTC()
		links = append(links, &link)
	}

	return links, rows.Err()
}
