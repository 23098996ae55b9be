package schema

import (
	"fmt"

	"github.com/leengari/graphsql/internal/domain/errors"
)

// Table is the reflected descriptor of a database table.
// It is never mutated once it is part of a published Catalog.
type Table struct {
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
	PrimaryKey []string `json:"primary_keys"`
}

// NewTable builds a descriptor and derives the primary key list from the column flags
func NewTable(name string, columns []Column) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", name)
	}

	t := &Table{
		Name:    name,
		Columns: make([]Column, len(columns)),
	}
	copy(t.Columns, columns)

	seen := make(map[string]bool, len(columns))
	for i := range t.Columns {
		col := &t.Columns[i]
		if seen[col.Name] {
			return nil, fmt.Errorf("table %s: duplicate column %s", name, col.Name)
		}
		seen[col.Name] = true
		col.Position = i
		if col.PrimaryKey {
			t.PrimaryKey = append(t.PrimaryKey, col.Name)
		}
	}
	return t, nil
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in reflected order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// GetPrimaryKeyColumn returns the single primary key column used for record lookup.
// Tables without a key or with a composite key yield a NoPrimaryKeyError.
func (t *Table) GetPrimaryKeyColumn() (*Column, error) {
	if len(t.PrimaryKey) != 1 {
		return nil, &errors.NoPrimaryKeyError{TableName: t.Name, Columns: t.PrimaryKey}
	}
	col, _ := t.Column(t.PrimaryKey[0])
	return col, nil
}

// HasSinglePrimaryKey reports whether single-record operations are supported
func (t *Table) HasSinglePrimaryKey() bool {
	return len(t.PrimaryKey) == 1
}

// InputColumns returns the columns a client may supply on create:
// everything except primary key and auto-generated columns.
func (t *Table) InputColumns() []Column {
	cols := make([]Column, 0, len(t.Columns))
	for _, col := range t.Columns {
		if col.PrimaryKey || col.AutoGenerated {
			continue
		}
		cols = append(cols, col)
	}
	return cols
}
