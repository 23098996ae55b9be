// Package dialect holds the per-store knowledge the rest of the service needs:
// how to enumerate tables and columns from the store's catalog, how to quote
// identifiers and bind parameters, and how to tell a data error from a store failure.
package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leengari/graphsql/internal/domain/schema"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Dialect describes one relational store
type Dialect interface {
	// Name is the scheme used in DATABASE_URL ("sqlite", "postgres", ...)
	Name() string
	// DriverName is the database/sql driver to open
	DriverName() string

	Quote(ident string) string
	// Placeholder returns the bind marker for the n-th (1-based) argument
	Placeholder(n int) string
	SupportsReturning() bool
	// Paginate returns the clause appended to a SELECT to window its rows
	Paginate(limit, offset int) string
	// InsertDefaults returns an INSERT statement that stores a row of defaults
	InsertDefaults(table *schema.Table) string
	ConfigurePool(db *sql.DB)

	ListTables(ctx context.Context, q Querier) ([]string, error)
	Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error)

	// ClassifyError returns a *errors.ValidationError when err is the store
	// rejecting user data, or nil otherwise.
	ClassifyError(table string, err error) error
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Dialect)
)

func register(d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	registry[d.Name()] = d
}

// Lookup returns the dialect registered under name
func Lookup(name string) (Dialect, error) {
	mu.RLock()
	defer mu.RUnlock()
	if d, ok := registry[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unsupported database dialect %q (available: %s)", name, strings.Join(namesLocked(), ", "))
}

// Names lists the registered dialects
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// quoteWith doubles embedded quote characters, which is the escaping rule shared by all supported stores
func quoteWith(q string, ident string) string {
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// scanStrings reads a single string column from every row
func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullableDefault(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
