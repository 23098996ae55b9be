package engine

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/leengari/graphsql/internal/domain/data"
	"github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
)

// querier is the subset of *sql.DB and *sql.Tx the read paths need
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// classify turns a store error into a ValidationError when the dialect
// recognises it as rejected data, and a StoreError otherwise.
// Errors that are already domain errors pass through unchanged.
func (e *Engine) classify(table, op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		valErr      *errors.ValidationError
		notFoundErr *errors.NotFoundError
		storeErr    *errors.StoreError
	)
	if stderrors.As(err, &valErr) || stderrors.As(err, &notFoundErr) || stderrors.As(err, &storeErr) {
		return err
	}
	if classified := e.dialect.ClassifyError(table, err); classified != nil {
		return classified
	}
	return &errors.StoreError{Table: table, Op: op, Err: err}
}

// columnList renders the quoted column names in reflected order
func (e *Engine) columnList(t *schema.Table) string {
	quoted := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		quoted[i] = e.dialect.Quote(col.Name)
	}
	return strings.Join(quoted, ", ")
}

func (e *Engine) selectSQL(t *schema.Table) string {
	return fmt.Sprintf("SELECT %s FROM %s", e.columnList(t), e.dialect.Quote(t.Name))
}

func (e *Engine) countSQL(t *schema.Table) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", e.dialect.Quote(t.Name))
}

func (e *Engine) selectByKeySQL(t *schema.Table, pk *schema.Column) string {
	return fmt.Sprintf("%s WHERE %s = %s", e.selectSQL(t), e.dialect.Quote(pk.Name), e.dialect.Placeholder(1))
}

// insertSQL builds an INSERT for the given record. Keys are bound in sorted
// order so the statement text is stable for identical key sets.
func (e *Engine) insertSQL(t *schema.Table, rec data.Record) (string, []interface{}) {
	if len(rec) == 0 {
		return e.dialect.InsertDefaults(t), nil
	}

	keys := rec.Keys()
	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		cols[i] = e.dialect.Quote(k)
		marks[i] = e.dialect.Placeholder(i + 1)
		args[i] = rec[k].Interface()
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		e.dialect.Quote(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return query, args
}

func (e *Engine) updateSQL(t *schema.Table, pk *schema.Column, rec data.Record, id interface{}) (string, []interface{}) {
	keys := rec.Keys()
	sets := make([]string, len(keys))
	args := make([]interface{}, 0, len(keys)+1)
	for i, k := range keys {
		sets[i] = fmt.Sprintf("%s = %s", e.dialect.Quote(k), e.dialect.Placeholder(i+1))
		args = append(args, rec[k].Interface())
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		e.dialect.Quote(t.Name), strings.Join(sets, ", "), e.dialect.Quote(pk.Name), e.dialect.Placeholder(len(keys)+1))
	return query, args
}

func (e *Engine) deleteSQL(t *schema.Table, pk *schema.Column) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		e.dialect.Quote(t.Name), e.dialect.Quote(pk.Name), e.dialect.Placeholder(1))
}

// scanRecords reads every row into a Record keyed by the table's columns.
// The statement must select the columns in reflected order.
func scanRecords(t *schema.Table, rows *sql.Rows) ([]data.Record, error) {
	defer rows.Close()

	records := make([]data.Record, 0)
	values := make([]interface{}, len(t.Columns))
	ptrs := make([]interface{}, len(t.Columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(data.Record, len(t.Columns))
		for i := range t.Columns {
			col := &t.Columns[i]
			rec[col.Name] = normalize(col, values[i])
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// fetchOne reads a single record by primary key, NotFoundError when absent
func (e *Engine) fetchOne(ctx context.Context, q querier, t *schema.Table, pk *schema.Column, id interface{}) (data.Record, error) {
	rows, err := q.QueryContext(ctx, e.selectByKeySQL(t, pk), id)
	if err != nil {
		return nil, err
	}
	records, err := scanRecords(t, rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &errors.NotFoundError{TableName: t.Name, ID: fmt.Sprint(id)}
	}
	return records[0], nil
}
