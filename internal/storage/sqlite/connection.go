// Package sqlite implements the storage interfaces on a local SQLite
// database using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"

	"github.com/ternarybob/quaestor/internal/common"
)

// SQLiteDB manages the SQLite database connection
type SQLiteDB struct {
	db     *sql.DB
	logger arbor.ILogger
	config *common.StorageConfig
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(logger arbor.ILogger, config *common.StorageConfig) (*SQLiteDB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database connection
	// modernc.org/sqlite uses "sqlite" driver name (not "sqlite3")
	db, err := sql.Open("sqlite", buildDSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteDB{
		db:     db,
		logger: logger,
		config: config,
	}

	// Run migrations
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Str("path", config.Path).Msg("SQLite database initialized")
	return s, nil
}

// buildDSN encodes the SQLite pragmas as DSN parameters. Pragmas are
// per-connection state and database/sql pools connections, so they have to
// travel in the DSN: the driver replays every _pragma parameter on each new
// connection it opens.
func buildDSN(config *common.StorageConfig) string {
	cacheSizeMB := config.CacheSizeMB
	if cacheSizeMB <= 0 {
		cacheSizeMB = 64
	}
	busyTimeoutMS := config.BusyTimeoutMS
	if busyTimeoutMS <= 0 {
		busyTimeoutMS = 5000
	}

	pragmas := []string{
		"_pragma=foreign_keys(1)", // Link rows must reference live page and site rows
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMS),
		fmt.Sprintf("_pragma=cache_size(-%d)", cacheSizeMB*1024), // Negative for KB
		"_pragma=synchronous(NORMAL)",
	}

	if config.WALMode {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}

	return config.Path + "?" + strings.Join(pragmas, "&")
}

// DB returns the underlying database connection
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteDB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// Ping verifies the database connection
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
