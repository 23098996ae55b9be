package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	domainerrors "github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
)

func init() {
	register(Postgres{})
}

// Postgres reflects the current schema through information_schema
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) Quote(ident string) string { return quoteWith(`"`, ident) }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) Paginate(limit, offset int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (Postgres) SupportsReturning() bool { return true }

func (d Postgres) InsertDefaults(t *schema.Table) string {
	return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", d.Quote(t.Name))
}

func (Postgres) ConfigurePool(db *sql.DB) {
	db.SetMaxOpenConns(30)
	db.SetMaxIdleConns(10)
}

const pgListTables = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`

const pgColumns = `
SELECT
	c.column_name,
	CASE WHEN c.data_type IN ('USER-DEFINED', 'ARRAY') THEN c.udt_name ELSE c.data_type END,
	c.is_nullable = 'YES',
	c.column_default,
	c.is_identity = 'YES' OR c.is_generated = 'ALWAYS' OR COALESCE(c.column_default, '') LIKE 'nextval(%',
	EXISTS (
		SELECT 1
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage k
			ON k.constraint_name = tc.constraint_name
			AND k.table_schema = tc.table_schema
			AND k.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = c.table_schema
			AND tc.table_name = c.table_name
			AND k.column_name = c.column_name
	)
FROM information_schema.columns c
WHERE c.table_schema = current_schema() AND c.table_name = $1
ORDER BY c.ordinal_position`

func (Postgres) ListTables(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, pgListTables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return scanStrings(rows)
}

func (Postgres) Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, pgColumns, table)
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col  schema.Column
			dflt sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.NativeType, &col.Nullable, &dflt, &col.AutoGenerated, &col.PrimaryKey); err != nil {
			return nil, err
		}
		col.Type = schema.MapNativeType(col.NativeType)
		col.Default = nullableDefault(dflt)
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (Postgres) ClassifyError(table string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	// class 22 data exception, class 23 integrity violation, 42703 undefined column, 42804 datatype mismatch
	if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") ||
		pgErr.Code == "42703" || pgErr.Code == "42804" {
		msg := pgErr.Message
		if pgErr.Detail != "" {
			msg += ": " + pgErr.Detail
		}
		return &domainerrors.ValidationError{Table: table, Column: pgErr.ColumnName, Message: msg, Err: err}
	}
	return nil
}
