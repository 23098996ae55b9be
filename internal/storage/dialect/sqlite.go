package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	domainerrors "github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
)

func init() {
	register(SQLite{})
}

// SQLite uses the pure Go modernc.org/sqlite driver
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite" }

func (SQLite) Quote(ident string) string { return quoteWith(`"`, ident) }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) Paginate(limit, offset int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (SQLite) SupportsReturning() bool { return true }

func (d SQLite) InsertDefaults(t *schema.Table) string {
	return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", d.Quote(t.Name))
}

// ConfigurePool serialises access through one connection; SQLite allows a
// single writer and in-memory databases live per connection.
func (SQLite) ConfigurePool(db *sql.DB) {
	db.SetMaxOpenConns(1)
}

func (SQLite) ListTables(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return scanStrings(rows)
}

func (SQLite) Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []schema.Column
	pkCount := 0
	for rows.Next() {
		var (
			name, native string
			notNull, pk  int
			dflt         sql.NullString
		)
		if err := rows.Scan(&name, &native, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if pk > 0 {
			pkCount++
		}
		cols = append(cols, schema.Column{
			Name:       name,
			Type:       schema.MapNativeType(native),
			NativeType: native,
			Nullable:   notNull == 0 && pk == 0,
			PrimaryKey: pk > 0,
			Default:    nullableDefault(dflt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// A lone INTEGER PRIMARY KEY aliases the rowid and is assigned by the store
	if pkCount == 1 {
		for i := range cols {
			if cols[i].PrimaryKey && strings.EqualFold(cols[i].NativeType, "INTEGER") {
				cols[i].AutoGenerated = true
			}
		}
	}
	return cols, nil
}

func (SQLite) ClassifyError(table string, err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_TOOBIG, sqlite3.SQLITE_RANGE:
		return &domainerrors.ValidationError{Table: table, Message: se.Error(), Err: err}
	case sqlite3.SQLITE_ERROR:
		// SQLITE_ERROR also covers missing tables and syntax errors; only
		// unknown columns come from the client's payload
		if unknownColumn(se.Error()) {
			return &domainerrors.ValidationError{Table: table, Message: se.Error(), Err: err}
		}
	}
	return nil
}

func unknownColumn(msg string) bool {
	return strings.Contains(msg, "no such column") || strings.Contains(msg, "has no column named")
}
