package engine

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/leengari/graphsql/internal/domain/data"
	"github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/domain/transaction"
)

// inTx runs fn inside one store transaction. Any error rolls the transaction back.
func (e *Engine) inTx(ctx context.Context, tc *transaction.Transaction, table, op string, fn func(*sql.Tx) error) error {
	stx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return e.classify(table, op, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := stx.Rollback(); rbErr != nil && !stderrors.Is(rbErr, sql.ErrTxDone) {
			e.notify(Event{Type: EventTxAbort, TxID: tc.ID, Op: op, Table: table, Data: rbErr.Error()})
			return
		}
		e.notify(Event{Type: EventTxAbort, TxID: tc.ID, Op: op, Table: table})
	}()

	if err := fn(stx); err != nil {
		return e.classify(table, op, err)
	}
	if err := stx.Commit(); err != nil {
		return e.classify(table, op, err)
	}
	committed = true
	e.notify(Event{Type: EventTxCommit, TxID: tc.ID, Op: op, Table: table})
	return nil
}

// Create inserts a record and returns the stored row, generated values included.
// Keys that are not columns of the table are passed to the store, which rejects them.
func (e *Engine) Create(ctx context.Context, table string, rec data.Record) (created data.Record, err error) {
	tc := e.begin("create", table, rec.Keys())
	defer func() { e.finish(tc, "create", table, err) }()

	t, err := e.catalog.Table(table)
	if err != nil {
		return nil, err
	}

	err = e.inTx(ctx, tc, table, "create", func(stx *sql.Tx) error {
		query, args := e.insertSQL(t, rec)

		if e.dialect.SupportsReturning() {
			rows, err := stx.QueryContext(ctx, query+" RETURNING "+e.columnList(t), args...)
			if err != nil {
				return err
			}
			records, err := scanRecords(t, rows)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return &errors.StoreError{Table: table, Op: "create", Err: sql.ErrNoRows}
			}
			created = records[0]
			return nil
		}

		res, err := stx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		created, err = e.readBack(ctx, stx, t, rec, res)
		return err
	})
	if err != nil {
		return nil, err
	}

	tc.Record(transaction.ChangeTypeCreated, table, created)
	return created, nil
}

// readBack loads the row just inserted on stores without RETURNING.
// The key comes from the supplied record or from the store's last insert id.
// Tables without a single primary key, and keys filled by a store default
// other than auto-increment, cannot be located and yield the supplied values.
func (e *Engine) readBack(ctx context.Context, stx *sql.Tx, t *schema.Table, rec data.Record, res sql.Result) (data.Record, error) {
	pk, err := t.GetPrimaryKeyColumn()
	if err != nil {
		return rec.Copy(), nil
	}

	var key interface{}
	v, supplied := rec[pk.Name]
	switch {
	case supplied && !v.IsNull():
		key = v.Interface()
	case pk.HasDefault() && !pk.AutoGenerated:
		// LastInsertId only reports auto-increment values
		return rec.Copy(), nil
	default:
		id, err := res.LastInsertId()
		if err != nil {
			return nil, &errors.StoreError{Table: t.Name, Op: "create", Err: err}
		}
		key = id
	}
	return e.fetchOne(ctx, stx, t, pk, key)
}

// Update overwrites the supplied columns of one record and leaves the rest untouched.
// An empty record is a no-op that returns the current row.
func (e *Engine) Update(ctx context.Context, table, id string, rec data.Record) (updated data.Record, err error) {
	tc := e.begin("update", table, id)
	defer func() { e.finish(tc, "update", table, err) }()

	t, pk, err := e.keyed(table)
	if err != nil {
		return nil, err
	}
	key, err := castID(table, pk, id)
	if err != nil {
		return nil, err
	}

	if len(rec) == 0 {
		updated, err = e.fetchOne(ctx, e.db, t, pk, key)
		if err != nil {
			return nil, e.classify(table, "update", err)
		}
		return updated, nil
	}

	err = e.inTx(ctx, tc, table, "update", func(stx *sql.Tx) error {
		query, args := e.updateSQL(t, pk, rec, key)
		res, err := stx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &errors.NotFoundError{TableName: table, ID: id}
		}

		// The update may have moved the row to a new key
		lookup := key
		if v, ok := rec[pk.Name]; ok && !v.IsNull() {
			lookup = v.Interface()
		}
		updated, err = e.fetchOne(ctx, stx, t, pk, lookup)
		return err
	})
	if err != nil {
		return nil, err
	}

	tc.Record(transaction.ChangeTypeUpdated, table, updated)
	return updated, nil
}

// Delete removes one record by primary key
func (e *Engine) Delete(ctx context.Context, table, id string) (err error) {
	tc := e.begin("delete", table, id)
	defer func() { e.finish(tc, "delete", table, err) }()

	t, pk, err := e.keyed(table)
	if err != nil {
		return err
	}
	key, err := castID(table, pk, id)
	if err != nil {
		return err
	}

	err = e.inTx(ctx, tc, table, "delete", func(stx *sql.Tx) error {
		res, err := stx.ExecContext(ctx, e.deleteSQL(t, pk), key)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &errors.NotFoundError{TableName: table, ID: id}
		}
		return nil
	})
	if err != nil {
		return err
	}

	tc.Record(transaction.ChangeTypeDeleted, table, data.Record{pk.Name: data.FromAny(key)})
	return nil
}
