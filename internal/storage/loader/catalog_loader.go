package loader

import (
	"context"
	"database/sql"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/storage/dialect"
)

// reflectConcurrency bounds the number of tables reflected at once
const reflectConcurrency = 4

// LoadCatalog reflects every table visible to the connection.
//
// An unreachable store yields a *errors.ConnectionError and no catalog.
// Per-table failures are collected into a *errors.ReflectionError that is
// returned alongside the catalog of the tables that did reflect; callers
// log it and carry on.
func LoadCatalog(ctx context.Context, db *sql.DB, d dialect.Dialect) (*schema.Catalog, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, &errors.ConnectionError{Driver: d.Name(), Err: err}
	}

	names, err := d.ListTables(ctx, db)
	if err != nil {
		reflectErr := &errors.ReflectionError{}
		reflectErr.Add("*", err)
		return schema.Empty(), reflectErr
	}

	// Results are stored by discovery index so the catalog keeps the store's order
	tables := make([]*schema.Table, len(names))
	failures := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(reflectConcurrency)
	for i, name := range names {
		g.Go(func() error {
			cols, err := d.Columns(ctx, db, name)
			if err != nil {
				failures[i] = err
				return nil
			}
			table, err := schema.NewTable(name, cols)
			if err != nil {
				failures[i] = err
				return nil
			}
			tables[i] = table
			return nil
		})
	}
	_ = g.Wait()

	reflectErr := &errors.ReflectionError{}
	for i, err := range failures {
		if err != nil {
			slog.Warn("skipping table that failed reflection", "table", names[i], "error", err)
			reflectErr.Add(names[i], err)
		}
	}

	catalog, err := schema.NewCatalog(tables...)
	if err != nil {
		reflectErr.Add("*", err)
		return schema.Empty(), reflectErr
	}

	slog.Info("Catalog loaded",
		"dialect", d.Name(),
		"tables", catalog.Len(),
		"skipped", len(reflectErr.Tables),
	)

	if !reflectErr.Empty() {
		return catalog, reflectErr
	}
	return catalog, nil
}
