package manager

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/storage/dialect"
	"github.com/leengari/graphsql/internal/storage/loader"
)

var errClosed = stderrors.New("connection manager is closed")

// Manager owns the process-wide connection pool and the published catalog.
//
// The pool is opened on first use behind a sync.Once and torn down by Close.
// Catalog snapshots are swapped atomically: readers either see the previous
// catalog or the new one, never a partially built one.
type Manager struct {
	target  Target
	dialect dialect.Dialect

	openOnce sync.Once
	db       *sql.DB
	openErr  error
	closed   atomic.Bool

	reloadMu sync.Mutex // serialises reloads
	catalog  atomic.Pointer[schema.Catalog]
}

// New parses the database URL and resolves its dialect. No connection is made yet.
func New(databaseURL string) (*Manager, error) {
	target, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	d, err := dialect.Lookup(target.Dialect)
	if err != nil {
		return nil, err
	}
	return &Manager{target: target, dialect: d}, nil
}

func (m *Manager) Target() Target {
	return m.target
}

func (m *Manager) Dialect() dialect.Dialect {
	return m.dialect
}

// DB returns the shared pool, opening it on first call
func (m *Manager) DB() (*sql.DB, error) {
	if m.closed.Load() {
		return nil, errClosed
	}
	m.openOnce.Do(func() {
		db, err := sql.Open(m.dialect.DriverName(), m.target.DSN)
		if err != nil {
			m.openErr = &errors.ConnectionError{Driver: m.dialect.Name(), Err: err}
			return
		}
		m.dialect.ConfigurePool(db)
		m.db = db
		slog.Info("Database pool opened", "dialect", m.dialect.Name(), "database", m.target.Display)
	})
	return m.db, m.openErr
}

// Catalog returns the currently published catalog, or nil before the first successful load
func (m *Manager) Catalog() *schema.Catalog {
	return m.catalog.Load()
}

// Reload reflects the store and publishes the result.
// A ReflectionError still publishes the partial catalog and is returned for logging.
func (m *Manager) Reload(ctx context.Context) (*schema.Catalog, error) {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	db, err := m.DB()
	if err != nil {
		return nil, err
	}

	catalog, err := loader.LoadCatalog(ctx, db, m.dialect)
	if catalog == nil {
		return nil, err
	}
	m.catalog.Store(catalog)
	return catalog, err
}

// Close tears down the pool. The manager cannot be reopened.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Make sure a later DB() call cannot open a fresh pool
	m.openOnce.Do(func() { m.openErr = errClosed })
	if m.db == nil {
		return nil
	}
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	slog.Info("Database pool closed", "dialect", m.dialect.Name())
	return nil
}
