// Package testutil provides throwaway SQLite databases for tests.
package testutil

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SampleSchema covers the table shapes the service must handle:
// a single auto-generated key, no key at all and a composite key.
var SampleSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email VARCHAR(255) UNIQUE,
		age INTEGER,
		score REAL,
		active BOOLEAN DEFAULT 1
	)`,
	`CREATE TABLE audit_log (
		message TEXT,
		level TEXT DEFAULT 'info'
	)`,
	`CREATE TABLE memberships (
		user_id INTEGER NOT NULL,
		group_id INTEGER NOT NULL,
		PRIMARY KEY (user_id, group_id)
	)`,
}

// memoryName returns a shared-cache in-memory database name unique to the test
func memoryName(t *testing.T) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return "file:" + name + "_" + uuid.NewString()[:8] + "?mode=memory&cache=shared"
}

// OpenMemoryDB opens a private in-memory database and runs the given DDL.
// The database disappears when the test ends.
func OpenMemoryDB(t *testing.T, ddl ...string) *sql.DB {
	t.Helper()
	db, _ := openMemory(t, ddl...)
	return db
}

// SeedMemoryDatabase creates an in-memory database and returns a DATABASE_URL
// pointing at it. A keeper connection holds the database alive until the test ends.
func SeedMemoryDatabase(t *testing.T, ddl ...string) string {
	t.Helper()
	_, name := openMemory(t, ddl...)
	return "sqlite://" + name
}

func openMemory(t *testing.T, ddl ...string) (*sql.DB, string) {
	t.Helper()
	name := memoryName(t)

	db, err := sql.Open("sqlite", name+"&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to run DDL %q: %v", stmt, err)
		}
	}
	return db, name
}

// MustExec runs a statement or fails the test
func MustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("Exec %q failed: %v", query, err)
	}
}
