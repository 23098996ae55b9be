//go:build db2

package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/ibmdb/go_ibm_db" // registers the "go_ibm_db" driver, needs the IBM CLI driver (cgo)

	domainerrors "github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
)

func init() {
	register(DB2{})
}

// DB2 reflects the current schema through the SYSCAT views.
// Only compiled with -tags db2.
type DB2 struct{}

func (DB2) Name() string       { return "db2" }
func (DB2) DriverName() string { return "go_ibm_db" }

func (DB2) Quote(ident string) string { return quoteWith(`"`, ident) }

func (DB2) Placeholder(int) string { return "?" }

func (DB2) Paginate(limit, offset int) string {
	return fmt.Sprintf("OFFSET %d ROWS FETCH FIRST %d ROWS ONLY", offset, limit)
}

func (DB2) SupportsReturning() bool { return false }

func (d DB2) InsertDefaults(t *schema.Table) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (DEFAULT)", d.Quote(t.Name), d.Quote(t.Columns[0].Name))
}

func (DB2) ConfigurePool(db *sql.DB) {
	db.SetMaxOpenConns(10)
}

func (DB2) ListTables(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`select tabname from syscat.tables where tabschema = current schema and type = 'T' order by create_time`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return scanStrings(rows)
}

func (DB2) Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, `
select colname, typename, nulls, default, keyseq, identity, generated
from syscat.columns
where tabschema = current schema and tabname = ?
order by colno`, table)
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			name, native, nulls, identity, generated string
			dflt                                     sql.NullString
			keySeq                                   sql.NullInt64
		)
		if err := rows.Scan(&name, &native, &nulls, &dflt, &keySeq, &identity, &generated); err != nil {
			return nil, err
		}
		native = strings.TrimSpace(native)
		cols = append(cols, schema.Column{
			Name:          strings.TrimSpace(name),
			Type:          schema.MapNativeType(native),
			NativeType:    native,
			Nullable:      nulls == "Y",
			PrimaryKey:    keySeq.Valid,
			AutoGenerated: identity == "Y" || strings.TrimSpace(generated) != "",
			Default:       nullableDefault(dflt),
		})
	}
	return cols, rows.Err()
}

var db2SQLState = regexp.MustCompile(`SQLSTATE=(\d{5})`)

// ClassifyError reads the SQLSTATE out of the CLI driver's message
func (DB2) ClassifyError(table string, err error) error {
	m := db2SQLState.FindStringSubmatch(err.Error())
	if m == nil {
		return nil
	}
	if strings.HasPrefix(m[1], "22") || strings.HasPrefix(m[1], "23") || m[1] == "42703" {
		return &domainerrors.ValidationError{Table: table, Message: err.Error(), Err: err}
	}
	return nil
}
