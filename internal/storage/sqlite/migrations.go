package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrate runs database migrations
func (s *SQLiteDB) migrate() error {
	ctx := context.Background()

	// Create migrations table
	if err := s.createMigrationsTable(ctx); err != nil {
		return err
	}

	// Run migrations
	migrations := []migration{
		{version: 1, name: "initial_schema", up: migrateV1},
	}

	for _, m := range migrations {
		if err := s.runMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}

	return nil
}

type migration struct {
	version int
	name    string
	up      func(context.Context, *sql.Tx) error
}

func (s *SQLiteDB) createMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLiteDB) runMigration(ctx context.Context, m migration) error {
	// Check if migration already applied
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.version).Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		return nil // Already applied
	}

	// Start transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Run migration
	if err := m.up(ctx, tx); err != nil {
		return err
	}

	// Record migration
	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, strftime('%s', 'now'))",
		m.version, m.name)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// migrateV1 creates the site/page/link schema.
func migrateV1(ctx context.Context, tx *sql.Tx) error {
	queries := []string{
		// One row per crawled site, keyed by base URL (scheme://host)
		`CREATE TABLE IF NOT EXISTS sites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL UNIQUE,
			crawl_time INTEGER NOT NULL
		)`,

		// One row per visited page. hash is the fingerprint of the
		// extracted link list; empty until finalized or on error.
		`CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site_id INTEGER NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			hash TEXT NOT NULL DEFAULT '',
			crawl_time INTEGER NOT NULL,
			error TEXT,
			UNIQUE(site_id, url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_site_crawl_time ON pages(site_id, crawl_time)`,

		// One row per classified link that survived ranking.
		`CREATE TABLE IF NOT EXISTS links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site_id INTEGER NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
			page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			score REAL NOT NULL,
			keywords TEXT NOT NULL DEFAULT '',
			crawl_time INTEGER NOT NULL,
			UNIQUE(site_id, page_id, url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_site_score ON links(site_id, score)`,
		`CREATE INDEX IF NOT EXISTS idx_links_site_crawl_time ON links(site_id, crawl_time)`,
	}

	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}
