package engine

import (
	"context"
	"fmt"

	"github.com/leengari/graphsql/internal/domain/data"
	"github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
)

// keyed resolves a table and its single primary key column
func (e *Engine) keyed(table string) (*schema.Table, *schema.Column, error) {
	t, err := e.catalog.Table(table)
	if err != nil {
		return nil, nil, err
	}
	pk, err := t.GetPrimaryKeyColumn()
	if err != nil {
		return nil, nil, err
	}
	return t, pk, nil
}

// List returns one page of a table together with the table's total row count.
// No ordering is imposed; rows come back in whatever order the store yields.
func (e *Engine) List(ctx context.Context, table string, limit, offset int) (page Page, err error) {
	tx := e.begin("list", table, map[string]int{"limit": limit, "offset": offset})
	defer func() { e.finish(tx, "list", table, err) }()

	t, err := e.catalog.Table(table)
	if err != nil {
		return Page{}, err
	}
	if offset < 0 {
		return Page{}, &errors.ValidationError{Table: table, Message: fmt.Sprintf("offset must not be negative, got %d", offset)}
	}
	limit = e.ClampLimit(limit)

	var total int64
	if err := e.db.QueryRowContext(ctx, e.countSQL(t)).Scan(&total); err != nil {
		return Page{}, e.classify(table, "list", err)
	}

	rows, err := e.db.QueryContext(ctx, e.selectSQL(t)+" "+e.dialect.Paginate(limit, offset))
	if err != nil {
		return Page{}, e.classify(table, "list", err)
	}
	records, err := scanRecords(t, rows)
	if err != nil {
		return Page{}, e.classify(table, "list", err)
	}

	return Page{Records: records, Total: total, Limit: limit, Offset: offset}, nil
}

// Get fetches one record by primary key
func (e *Engine) Get(ctx context.Context, table, id string) (rec data.Record, err error) {
	tx := e.begin("get", table, id)
	defer func() { e.finish(tx, "get", table, err) }()

	t, pk, err := e.keyed(table)
	if err != nil {
		return nil, err
	}
	key, err := castID(table, pk, id)
	if err != nil {
		return nil, err
	}

	rec, err = e.fetchOne(ctx, e.db, t, pk, key)
	if err != nil {
		return nil, e.classify(table, "get", err)
	}
	return rec, nil
}
