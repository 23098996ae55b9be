package graphql

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	gql "github.com/graphql-go/graphql"

	"github.com/leengari/graphsql/internal/domain/data"
	domainerrors "github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/events"
)

// columnResolver reads one column out of the data.Record source.
// For Int fields a value outside 32 bits is an error rather than a silent null.
func columnResolver(column string, int32Only bool) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		rec, ok := p.Source.(data.Record)
		if !ok {
			return nil, nil
		}
		v := rec[column]
		if n, isInt := v.Int(); isInt && int32Only && (n > math.MaxInt32 || n < math.MinInt32) {
			return nil, fmt.Errorf("column %s holds %d, which does not fit a GraphQL Int", column, n)
		}
		return v.Interface(), nil
	}
}

func (s *Surface) resolveGet(b *tableBinding) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		rec, err := s.engine.Get(p.Context, b.table.Name, idString(p.Args["id"]))
		if err != nil {
			var notFound *domainerrors.NotFoundError
			if errors.As(err, &notFound) {
				return nil, nil
			}
			return nil, publicError(err)
		}
		return rec, nil
	}
}

func (s *Surface) resolveList(b *tableBinding) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		limit, _ := p.Args["limit"].(int)
		offset, _ := p.Args["offset"].(int)

		page, err := s.engine.List(p.Context, b.table.Name, limit, offset)
		if err != nil {
			return nil, publicError(err)
		}
		return page.Records, nil
	}
}

func (s *Surface) resolveCreate(b *tableBinding) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		rec := b.toRecord(p.Args["data"], false)

		created, err := s.engine.Create(p.Context, b.table.Name, rec)
		if err != nil {
			return nil, publicError(err)
		}
		events.PublishChange(p.Context, s.publisher, b.table.Name, events.ActionCreated, created)
		return created, nil
	}
}

func (s *Surface) resolveUpdate(b *tableBinding) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		rec := b.toRecord(p.Args["data"], true)

		updated, err := s.engine.Update(p.Context, b.table.Name, idString(p.Args["id"]), rec)
		if err != nil {
			return nil, publicError(err)
		}
		events.PublishChange(p.Context, s.publisher, b.table.Name, events.ActionUpdated, updated)
		return updated, nil
	}
}

func (s *Surface) resolveDelete(b *tableBinding) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		id := idString(p.Args["id"])
		if err := s.engine.Delete(p.Context, b.table.Name, id); err != nil {
			return nil, publicError(err)
		}
		if key, err := s.engine.KeyRecord(b.table.Name, id); err == nil {
			events.PublishChange(p.Context, s.publisher, b.table.Name, events.ActionDeleted, key)
		}
		return true, nil
	}
}

// toRecord maps an input object back onto column names.
// Create drops explicit nulls so the store applies column defaults;
// update keeps them so a column can be cleared.
func (b *tableBinding) toRecord(arg interface{}, keepNulls bool) data.Record {
	in, _ := arg.(map[string]interface{})
	rec := make(data.Record, len(in))
	for field, v := range in {
		col, ok := b.fieldToCol[field]
		if !ok {
			continue
		}
		if v == nil && !keepNulls {
			continue
		}
		rec[col] = data.FromAny(v)
	}
	return rec
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

// publicError keeps store internals out of the errors array
func publicError(err error) error {
	var storeErr *domainerrors.StoreError
	if errors.As(err, &storeErr) {
		slog.Error("graphql resolver failed", "table", storeErr.Table, "op", storeErr.Op, "error", err)
		return errors.New("Internal database error")
	}
	return err
}
