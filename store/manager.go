package store

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
)

// Manager fronts the relational source of truth. The cache layer only
// sees it through per-family fetchers on miss and through committed
// entities handed back by mutations.
type Manager struct {
	ctx         context.Context
	logger      types.Logger
	path        string
	db          *sql.DB
	collections *CollectionRepository
	products    *ProductRepository
	invitations *InvitationRepository
	started     int32
}

func NewManager(ctx context.Context, config types.ConfigManager, logger types.Logger) (types.StoreManager, error) {
	storeConfig := config.GetConfig().Store

	if storeConfig == nil || !storeConfig.Enabled {
		return nil, types.ErrStoreIsDisabled
	}

	return &Manager{
		ctx:    ctx,
		logger: logger,
		path:   storeConfig.Path,
	}, nil
}

func (m *Manager) Start() error {
	if !atomic.CompareAndSwapInt32(&m.started, 0, 1) {
		return nil
	}

	db, err := sql.Open("sqlite3", m.path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		atomic.StoreInt32(&m.started, 0)
		return types.WrapError(err, "failed to open store")
	}

	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		atomic.StoreInt32(&m.started, 0)
		_ = db.Close()
		return types.WrapError(err, "failed to ping store")
	}

	if err := migrate(ctx, db); err != nil {
		atomic.StoreInt32(&m.started, 0)
		_ = db.Close()
		return types.WrapError(err, "failed to migrate store")
	}

	m.db = db
	m.collections = &CollectionRepository{db: db, logger: m.logger}
	m.products = &ProductRepository{db: db, logger: m.logger}
	m.invitations = &InvitationRepository{db: db, logger: m.logger}

	m.logger.Info("Store started", zap.String("path", m.path))

	return nil
}

func (m *Manager) Stop() error {
	if !atomic.CompareAndSwapInt32(&m.started, 1, 0) {
		return nil
	}

	if m.db != nil {
		if err := m.db.Close(); err != nil {
			m.logger.Error("Failed to close store", zap.Error(err))
			return types.WrapError(err, "failed to close store")
		}
	}

	m.logger.Info("Store stopped")
	return nil
}

func (m *Manager) IsRunning() bool {
	return atomic.LoadInt32(&m.started) == 1
}

func (m *Manager) Collections() types.CollectionStore {
	return m.collections
}

func (m *Manager) Products() types.ProductStore {
	return m.products
}

func (m *Manager) Invitations() types.InvitationStore {
	return m.invitations
}

func (m *Manager) Ping(ctx context.Context) error {
	if m.db == nil {
		return types.ErrStoreNotRunning
	}
	return m.db.PingContext(ctx)
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			published INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			vendor_id TEXT NOT NULL,
			collection_id TEXT NOT NULL DEFAULT '',
			price_cents INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'draft',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_vendor ON products(vendor_id)`,
		`CREATE TABLE IF NOT EXISTS vendor_invitations (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			vendor_name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
