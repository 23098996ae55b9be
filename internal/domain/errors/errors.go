package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ConnectionError means the store could not be reached while building the catalog.
// It is fatal to the surfaces depending on the catalog, never to the process.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s database: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ReflectionError collects per-table introspection failures.
// The catalog it accompanies is still usable, only smaller.
type ReflectionError struct {
	Tables map[string]error // table name -> cause; "*" when listing itself failed
}

func (e *ReflectionError) Error() string {
	names := make([]string, 0, len(e.Tables))
	for name := range e.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Tables[name]))
	}
	return fmt.Sprintf("reflection failed for %d table(s): %s", len(names), strings.Join(parts, "; "))
}

// Add records a failure for a table, creating the map on first use
func (e *ReflectionError) Add(table string, err error) {
	if e.Tables == nil {
		e.Tables = make(map[string]error)
	}
	e.Tables[table] = err
}

// Empty reports whether no failure was recorded
func (e *ReflectionError) Empty() bool {
	return len(e.Tables) == 0
}

// UnknownTableError is returned when a table name is absent from the catalog
type UnknownTableError struct {
	TableName string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("Table '%s' not found", e.TableName)
}

// NoPrimaryKeyError marks a table that cannot serve single-record operations
// because it has no primary key, or a composite one.
type NoPrimaryKeyError struct {
	TableName string
	Columns   []string
}

func (e *NoPrimaryKeyError) Error() string {
	if len(e.Columns) > 1 {
		return fmt.Sprintf("Table '%s' has a composite primary key (%s)", e.TableName, strings.Join(e.Columns, ", "))
	}
	return fmt.Sprintf("Table '%s' has no primary key", e.TableName)
}

// ValidationError carries a rejection of user data. Store messages are passed through untouched.
type ValidationError struct {
	Table   string
	Column  string // empty if not tied to a column
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid data for %s.%s", e.Table, e.Column)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError is returned when no record matches the given primary key
type NotFoundError struct {
	TableName string
	ID        string
}

func (e *NotFoundError) Error() string {
	return "Record not found"
}

// StoreError wraps a store failure that is not attributable to user data
type StoreError struct {
	Table string
	Op    string // "list", "get", "create", "update", "delete"
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
