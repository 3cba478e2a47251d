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

// PageStorage implements interfaces.PageStorage on SQLite
type PageStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewPageStorage creates a new page storage instance
func NewPageStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.PageStorage {
	return &PageStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertPage inserts or updates the row keyed by (site_id, url). When a
// non-empty error is recorded the stored crawl time is backdated by one
// second so the page falls below the stale threshold and is retried on the
// next run.
func (p *PageStorage) UpsertPage(ctx context.Context, siteID int64, url, hash string, crawlTime time.Time, pageErr string) (*models.Page, error) {
	storedTime := crawlTime.Unix()
	if pageErr != "" {
		storedTime = crawlTime.Add(-time.Second).Unix()
	}

	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO pages (site_id, url, hash, crawl_time, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(site_id, url) DO UPDATE SET
			hash = excluded.hash,
			crawl_time = excluded.crawl_time,
			error = excluded.error
		RETURNING id`

	var id int64
	if err := tx.QueryRowContext(ctx, query, siteID, url, hash, storedTime, nullableString(pageErr)).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to upsert page: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit page upsert: %w", err)
	}

	return &models.Page{
		ID:        id,
		SiteID:    siteID,
		URL:       url,
		Hash:      hash,
		CrawlTime: time.Unix(storedTime, 0).UTC(),
		Error:     pageErr,
	}, nil
}

// UpdatePageHash finalizes a successfully processed page
func (p *PageStorage) UpdatePageHash(ctx context.Context, id int64, hash string) error {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE pages SET hash = ?, error = NULL WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update page hash: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("page %d not found", id)
	}

	return tx.Commit()
}

// UpdatePageError records a processing failure. The stored crawl time is
// backdated by one second from the value written at the start of the run.
func (p *PageStorage) UpdatePageError(ctx context.Context, id int64, pageErr string) error {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE pages SET error = ?, hash = '', crawl_time = crawl_time - 1 WHERE id = ?`
	result, err := tx.ExecContext(ctx, query, pageErr, id)
	if err != nil {
		return fmt.Errorf("failed to update page error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("page %d not found", id)
	}

	return tx.Commit()
}

// GetPage returns the page with the given id, or nil when absent
func (p *PageStorage) GetPage(ctx context.Context, id int64) (*models.Page, error) {
	query := `SELECT id, site_id, url, hash, crawl_time, error FROM pages WHERE id = ?`

	page, err := scanPage(p.db.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ListPagesForSite returns every page of a site ordered by URL
func (p *PageStorage) ListPagesForSite(ctx context.Context, siteID int64) ([]*models.Page, error) {
	query := `SELECT id, site_id, url, hash, crawl_time, error FROM pages WHERE site_id = ? ORDER BY url`

	rows, err := p.db.DB().QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		page, err := scanPageRow(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// DeleteStalePages removes the site's pages with crawl_time strictly before
// the cutoff
func (p *PageStorage) DeleteStalePages(ctx context.Context, siteID int64, before time.Time) (int64, error) {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM pages WHERE site_id = ? AND crawl_time < ?`, siteID, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale pages: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit stale page delete: %w", err)
	}

	if affected > 0 {
		p.logger.Debug().Int64("site_id", siteID).Int64("pages", affected).Msg("Reaped stale pages")
	}
	return affected, nil
}

func scanPage(row *sql.Row) (*models.Page, error) {
	var page models.Page
	var crawlTime int64
	var pageErr sql.NullString
	if err := row.Scan(&page.ID, &page.SiteID, &page.URL, &page.Hash, &crawlTime, &pageErr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan page row: %w", err)
	}
	page.CrawlTime = time.Unix(crawlTime, 0).UTC()
	page.Error = pageErr.String
	return &page, nil
}

func scanPageRow(rows *sql.Rows) (*models.Page, error) {
	var page models.Page
	var crawlTime int64
	var pageErr sql.NullString
	if err := rows.Scan(&page.ID, &page.SiteID, &page.URL, &page.Hash, &crawlTime, &pageErr); err != nil {
		return nil, fmt.Errorf("failed to scan page row: %w", err)
	}
	page.CrawlTime = time.Unix(crawlTime, 0).UTC()
	page.Error = pageErr.String
	return &page, nil
}

// nullableString maps "" to NULL for nullable text columns
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
