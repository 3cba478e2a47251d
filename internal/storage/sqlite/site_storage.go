package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

// SiteStorage implements interfaces.SiteStorage on SQLite
type SiteStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewSiteStorage creates a new site storage instance
func NewSiteStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.SiteStorage {
	return &SiteStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertSite inserts the site or refreshes its crawl time, returning the row
func (s *SiteStorage) UpsertSite(ctx context.Context, baseURL string, crawlTime time.Time) (*models.Site, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sites (url, crawl_time) VALUES (?, ?)
		ON CONFLICT(url) DO UPDATE SET crawl_time = excluded.crawl_time
		RETURNING id`

	var id int64
	if err := tx.QueryRowContext(ctx, query, baseURL, crawlTime.Unix()).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to upsert site: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit site upsert: %w", err)
	}

	return &models.Site{
		ID:        id,
		URL:       baseURL,
		CrawlTime: time.Unix(crawlTime.Unix(), 0).UTC(),
	}, nil
}

// GetSite returns the site with the given id, or nil when absent
func (s *SiteStorage) GetSite(ctx context.Context, id int64) (*models.Site, error) {
	query := `SELECT id, url, crawl_time FROM sites WHERE id = ?`
	return s.scanSite(s.db.DB().QueryRowContext(ctx, query, id))
}

// GetSiteByURL returns the site keyed by base URL, or nil when absent
func (s *SiteStorage) GetSiteByURL(ctx context.Context, baseURL string) (*models.Site, error) {
	query := `SELECT id, url, crawl_time FROM sites WHERE url = ?`
	return s.scanSite(s.db.DB().QueryRowContext(ctx, query, baseURL))
}

// ListSites returns all sites ordered by URL
func (s *SiteStorage) ListSites(ctx context.Context) ([]*models.Site, error) {
	query := `SELECT id, url, crawl_time FROM sites ORDER BY url`

	rows, err := s.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		var site models.Site
		var crawlTime int64
		if err := rows.Scan(&site.ID, &site.URL, &crawlTime); err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		site.CrawlTime = time.Unix(crawlTime, 0).UTC()
		sites = append(sites, &site)
	}

	return sites, rows.Err()
}

// DeleteSite removes the site; pages and links cascade
func (s *SiteStorage) DeleteSite(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("site %d not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit site delete: %w", err)
	}

	s.logger.Debug().Int64("site_id", id).Msg("Site deleted")
	return nil
}

func (s *SiteStorage) scanSite(row *sql.Row) (*models.Site, error) {
	var site models.Site
	var crawlTime int64
	if err := row.Scan(&site.ID, &site.URL, &crawlTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan site row: %w", err)
	}
	site.CrawlTime = time.Unix(crawlTime, 0).UTC()
	return &site, nil
}
