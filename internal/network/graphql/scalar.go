package graphql

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	gql "github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/leengari/graphsql/internal/domain/schema"
)

// BigInt carries 64-bit integer columns. The built-in Int is 32-bit and
// serializes anything larger as null.
var BigInt = gql.NewScalar(gql.ScalarConfig{
	Name:        "BigInt",
	Description: "A signed 64-bit integer",
	Serialize:   coerceInt64,
	ParseValue:  coerceInt64,
	ParseLiteral: func(value ast.Value) interface{} {
		switch v := value.(type) {
		case *ast.IntValue:
			return coerceInt64(v.Value)
		case *ast.StringValue:
			return coerceInt64(v.Value)
		}
		return nil
	},
})

// coerceInt64 returns nil for anything that is not an integral number
func coerceInt64(value interface{}) interface{} {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint32:
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return nil
		}
		return int64(v)
	case float64:
		// JSON variables arrive as float64
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return nil
		}
		return int64(v)
	case json.Number:
		return coerceInt64(v.String())
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil
		}
		return n
	}
	return nil
}

// scalarFor maps a column onto a GraphQL scalar.
// Integer columns declared 64-bit by the store use BigInt, other integers Int.
func scalarFor(col schema.Column) *gql.Scalar {
	switch col.Type {
	case schema.ColumnTypeInteger:
		if wideInteger(col.NativeType) {
			return BigInt
		}
		return gql.Int
	case schema.ColumnTypeFloat:
		return gql.Float
	case schema.ColumnTypeBoolean:
		return gql.Boolean
	default:
		return gql.String
	}
}

func wideInteger(native string) bool {
	n := strings.ToLower(native)
	for _, marker := range []string{"bigint", "int8", "bigserial", "serial8", "long"} {
		if strings.Contains(n, marker) {
			return true
		}
	}
	return false
}
