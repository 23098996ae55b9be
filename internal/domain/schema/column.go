package schema

// ColumnType is the coarse type a native store type is reduced to
type ColumnType string

const (
	ColumnTypeString  ColumnType = "string"
	ColumnTypeInteger ColumnType = "integer"
	ColumnTypeFloat   ColumnType = "float"
	ColumnTypeBoolean ColumnType = "boolean"
	ColumnTypeOther   ColumnType = "other"
)

// Column describes one reflected column
type Column struct {
	Name          string     `json:"name"`
	Position      int        `json:"position"`
	Type          ColumnType `json:"type"`
	NativeType    string     `json:"native_type"`
	Nullable      bool       `json:"nullable"`
	PrimaryKey    bool       `json:"primary_key"`
	AutoGenerated bool       `json:"autogenerated"`
	Default       *string    `json:"default,omitempty"`
}

// HasDefault reports whether the store fills the column when it is omitted on insert
func (c Column) HasDefault() bool {
	return c.Default != nil || c.AutoGenerated
}
