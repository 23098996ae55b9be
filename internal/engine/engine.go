// Package engine is the record access layer: generic CRUD over any table
// described by the catalog, executed against the store through database/sql.
package engine

import (
	"database/sql"
	"sync"
	"time"

	"github.com/leengari/graphsql/internal/domain/data"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/domain/transaction"
	"github.com/leengari/graphsql/internal/storage/dialect"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// Page is one window of a table listing
type Page struct {
	Records []data.Record
	Total   int64 // rows in the whole table, independent of the window
	Limit   int
	Offset  int
}

// Engine executes record operations against one catalog snapshot.
// A catalog reload builds a new Engine; the pool is shared between them.
type Engine struct {
	db      *sql.DB
	dialect dialect.Dialect
	catalog *schema.Catalog

	defaultPageSize int
	maxPageSize     int

	mu        sync.RWMutex
	observers []Observer // Observers for lifecycle events
}

// Option configures an Engine
type Option func(*Engine)

// WithPageSizes overrides the default and maximum page sizes.
// Non-positive values keep the built-in defaults.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(e *Engine) {
		if maxSize > 0 {
			e.maxPageSize = maxSize
		}
		if defaultSize > 0 {
			e.defaultPageSize = defaultSize
		}
		if e.defaultPageSize > e.maxPageSize {
			e.defaultPageSize = e.maxPageSize
		}
	}
}

// WithObserver registers an observer at construction time
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// New creates a new Engine instance
func New(db *sql.DB, d dialect.Dialect, catalog *schema.Catalog, opts ...Option) *Engine {
	if catalog == nil {
		catalog = schema.Empty()
	}
	e := &Engine{
		db:              db,
		dialect:         d,
		catalog:         catalog,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
		observers:       make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the snapshot this engine resolves tables against
func (e *Engine) Catalog() *schema.Catalog {
	return e.catalog
}

// ClampLimit applies the paging rule shared by every listing surface:
// non-positive means the default page size, anything above the maximum is cut down.
func (e *Engine) ClampLimit(limit int) int {
	if limit <= 0 {
		return e.defaultPageSize
	}
	return min(limit, e.maxPageSize)
}

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(observer Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, observer)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(observer Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	event.Timestamp = time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, observer := range e.observers {
		observer.OnEvent(event)
	}
}

// begin opens the per-call transaction context and reports the start of the operation
func (e *Engine) begin(op, table string, data interface{}) *transaction.Transaction {
	tx := transaction.NewTransaction()
	e.notify(Event{Type: EventOpStart, TxID: tx.ID, Op: op, Table: table, Data: data})
	return tx
}

// finish reports the outcome of the transaction context
func (e *Engine) finish(tx *transaction.Transaction, op, table string, err error) {
	if err != nil {
		e.notify(Event{Type: EventOpError, TxID: tx.ID, Op: op, Table: table, Data: err.Error()})
		return
	}
	e.notify(Event{Type: EventOpEnd, TxID: tx.ID, Op: op, Table: table, Data: map[string]interface{}{
		"elapsed_ms": tx.Elapsed().Milliseconds(),
		"changes":    len(tx.Changes),
	}})
}
