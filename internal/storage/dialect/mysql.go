package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	domainerrors "github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
)

func init() {
	register(MySQL{})
}

// MySQL reflects the connected database through information_schema.
// It has no RETURNING clause, so inserted rows are read back by key.
type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) Quote(ident string) string { return quoteWith("`", ident) }

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) Paginate(limit, offset int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (MySQL) SupportsReturning() bool { return false }

func (d MySQL) InsertDefaults(t *schema.Table) string {
	return fmt.Sprintf("INSERT INTO %s () VALUES ()", d.Quote(t.Name))
}

func (MySQL) ConfigurePool(db *sql.DB) {
	db.SetMaxOpenConns(30)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// Server error numbers that mean the data was rejected.
// See: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
var mysqlValidationErrors = map[uint16]bool{
	1048: true, // column cannot be null
	1054: true, // unknown column
	1062: true, // duplicate entry
	1136: true, // column count doesn't match value count
	1264: true, // out of range value
	1265: true, // data truncated
	1364: true, // field doesn't have a default value
	1366: true, // incorrect value for column
	1406: true, // data too long
	1451: true, // foreign key: row is referenced
	1452: true, // foreign key: parent row missing
}

func (MySQL) ListTables(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
SELECT TABLE_NAME
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return scanStrings(rows)
}

func (MySQL) Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, `
SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY, EXTRA
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`, table)
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			name, native, nullable, key, extra string
			dflt                               sql.NullString
		)
		if err := rows.Scan(&name, &native, &nullable, &dflt, &key, &extra); err != nil {
			return nil, err
		}
		extra = strings.ToLower(extra)
		cols = append(cols, schema.Column{
			Name:          name,
			Type:          schema.MapNativeType(native),
			NativeType:    native,
			Nullable:      nullable == "YES",
			PrimaryKey:    key == "PRI",
			AutoGenerated: strings.Contains(extra, "auto_increment") || strings.Contains(extra, " generated"),
			Default:       nullableDefault(dflt),
		})
	}
	return cols, rows.Err()
}

func (MySQL) ClassifyError(table string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && mysqlValidationErrors[myErr.Number] {
		return &domainerrors.ValidationError{Table: table, Message: myErr.Message, Err: err}
	}
	return nil
}
