package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leengari/graphsql/internal/domain/data"
	"github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
)

// castID converts a path or argument id into the primary key's declared type
func castID(table string, pk *schema.Column, id string) (interface{}, error) {
	invalid := func(err error) error {
		return &errors.ValidationError{
			Table:   table,
			Column:  pk.Name,
			Message: fmt.Sprintf("Invalid id '%s' for %s column '%s'", id, pk.Type, pk.Name),
			Err:     err,
		}
	}

	switch pk.Type {
	case schema.ColumnTypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, invalid(err)
		}
		return n, nil
	case schema.ColumnTypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(id), 64)
		if err != nil {
			return nil, invalid(err)
		}
		return f, nil
	case schema.ColumnTypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(id))
		if err != nil {
			return nil, invalid(err)
		}
		return b, nil
	default:
		return id, nil
	}
}

// normalize maps a scanned driver value onto the column's coarse type.
// Drivers disagree on how they hand back booleans and decimals: SQLite reports
// BOOLEAN columns as integers, pgx renders NUMERIC as text and MySQL returns
// raw bytes for untyped result columns.
func normalize(col *schema.Column, raw interface{}) data.Value {
	v := data.FromAny(raw)
	if v.IsNull() || col == nil {
		return v
	}

	switch col.Type {
	case schema.ColumnTypeBoolean:
		if i, ok := v.Int(); ok {
			return data.Bool(i != 0)
		}
		if s, ok := v.Str(); ok {
			if b, err := strconv.ParseBool(s); err == nil {
				return data.Bool(b)
			}
		}
	case schema.ColumnTypeInteger:
		if s, ok := v.Str(); ok {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return data.Int(i)
			}
		}
		if b, ok := v.Bool(); ok {
			if b {
				return data.Int(1)
			}
			return data.Int(0)
		}
	case schema.ColumnTypeFloat:
		if s, ok := v.Str(); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return data.Float(f)
			}
		}
	}
	return v
}

// KeyRecord returns the record identifying a row by its primary key, with the
// id cast to the key's type. It is the payload of delete notifications.
func (e *Engine) KeyRecord(table, id string) (data.Record, error) {
	_, pk, err := e.keyed(table)
	if err != nil {
		return nil, err
	}
	key, err := castID(table, pk, id)
	if err != nil {
		return nil, err
	}
	return data.Record{pk.Name: data.FromAny(key)}, nil
}
