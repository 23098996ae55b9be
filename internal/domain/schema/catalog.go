package schema

import (
	"fmt"

	"github.com/leengari/graphsql/internal/domain/errors"
)

// Catalog is the in-memory model of a reflected database.
// Tables keep the order in which the store reported them. A Catalog is
// read-only after NewCatalog returns; a reload builds a new one.
type Catalog struct {
	tables []*Table
	byName map[string]*Table
}

// NewCatalog publishes the given tables as an immutable catalog
func NewCatalog(tables ...*Table) (*Catalog, error) {
	c := &Catalog{
		tables: make([]*Table, 0, len(tables)),
		byName: make(map[string]*Table, len(tables)),
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		if len(t.Columns) == 0 {
			return nil, fmt.Errorf("table %s has no columns", t.Name)
		}
		if _, exists := c.byName[t.Name]; exists {
			return nil, fmt.Errorf("duplicate table %s", t.Name)
		}
		c.tables = append(c.tables, t)
		c.byName[t.Name] = t
	}
	return c, nil
}

// Empty returns a catalog with no tables
func Empty() *Catalog {
	c, _ := NewCatalog()
	return c
}

// Table resolves a table by name
func (c *Catalog) Table(name string) (*Table, error) {
	if t, ok := c.byName[name]; ok {
		return t, nil
	}
	return nil, &errors.UnknownTableError{TableName: name}
}

// Has reports whether the table exists
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Tables returns the tables in discovery order
func (c *Catalog) Tables() []*Table {
	out := make([]*Table, len(c.tables))
	copy(out, c.tables)
	return out
}

// Names returns the table names in discovery order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tables))
	for i, t := range c.tables {
		names[i] = t.Name
	}
	return names
}

func (c *Catalog) Len() int {
	return len(c.tables)
}
