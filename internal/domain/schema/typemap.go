package schema

import "strings"

// typePatterns is matched in order against the lowercased native type name.
// The first pattern contained in the name wins.
var typePatterns = []struct {
	pattern string
	kind    ColumnType
}{
	{"bool", ColumnTypeBoolean},
	// "interval" and "point" contain "int"
	{"interval", ColumnTypeString},
	{"point", ColumnTypeString},
	{"serial", ColumnTypeInteger},
	{"int", ColumnTypeInteger},
	{"float", ColumnTypeFloat},
	{"double", ColumnTypeFloat},
	{"decimal", ColumnTypeFloat},
	{"numeric", ColumnTypeFloat},
	{"real", ColumnTypeFloat},
	{"money", ColumnTypeFloat},
	{"char", ColumnTypeString},
	{"text", ColumnTypeString},
	{"clob", ColumnTypeString},
	{"string", ColumnTypeString},
	{"uuid", ColumnTypeString},
	{"blob", ColumnTypeOther},
	{"binary", ColumnTypeOther},
	{"bytea", ColumnTypeOther},
}

// MapNativeType reduces a store type name (e.g. "VARCHAR(255)", "bigint unsigned")
// to a ColumnType. Unknown names map to string.
func MapNativeType(native string) ColumnType {
	name := strings.ToLower(strings.TrimSpace(native))
	for _, p := range typePatterns {
		if strings.Contains(name, p.pattern) {
			return p.kind
		}
	}
	return ColumnTypeString
}
