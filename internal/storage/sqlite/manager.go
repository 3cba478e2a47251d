package sqlite

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
)

// Manager implements the StorageManager interface
type Manager struct {
	db     *SQLiteDB
	sites  interfaces.SiteStorage
	pages  interfaces.PageStorage
	links  interfaces.LinkStorage
	logger arbor.ILogger
}

// NewManager creates a new SQLite storage manager
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (interfaces.StorageManager, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:     db,
		sites:  NewSiteStorage(db, logger),
		pages:  NewPageStorage(db, logger),
		links:  NewLinkStorage(db, logger),
		logger: logger,
	}, nil
}

// Sites returns the site storage interface
func (m *Manager) Sites() interfaces.SiteStorage {
	return m.sites
}

// Pages returns the page storage interface
func (m *Manager) Pages() interfaces.PageStorage {
	return m.pages
}

// Links returns the link storage interface
func (m *Manager) Links() interfaces.LinkStorage {
	return m.links
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
