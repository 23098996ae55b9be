package schema

import (
	stderrors "errors"
	"testing"

	"github.com/leengari/graphsql/internal/domain/errors"
)

func usersTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable("users", []Column{
		{Name: "id", Type: ColumnTypeInteger, PrimaryKey: true, AutoGenerated: true},
		{Name: "name", Type: ColumnTypeString, Nullable: true},
		{Name: "email", Type: ColumnTypeString},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return tbl
}

func TestMapNativeType(t *testing.T) {
	tests := map[string]ColumnType{
		"INTEGER":                     ColumnTypeInteger,
		"bigint unsigned":             ColumnTypeInteger,
		"smallserial":                 ColumnTypeInteger,
		"VARCHAR(255)":                ColumnTypeString,
		"character varying":           ColumnTypeString,
		"TEXT":                        ColumnTypeString,
		"boolean":                     ColumnTypeBoolean,
		"DOUBLE PRECISION":            ColumnTypeFloat,
		"numeric(10,2)":               ColumnTypeFloat,
		"REAL":                        ColumnTypeFloat,
		"interval":                    ColumnTypeString,
		"timestamp without time zone": ColumnTypeString,
		"BLOB":                        ColumnTypeOther,
		"bytea":                       ColumnTypeOther,
		"":                            ColumnTypeString,
		"geography":                   ColumnTypeString,
	}

	for native, want := range tests {
		if got := MapNativeType(native); got != want {
			t.Errorf("MapNativeType(%q) = %s, want %s", native, got, want)
		}
	}
}

func TestNewTablePrimaryKey(t *testing.T) {
	tbl := usersTable(t)

	if len(tbl.PrimaryKey) != 1 || tbl.PrimaryKey[0] != "id" {
		t.Fatalf("Expected primary key [id], got %v", tbl.PrimaryKey)
	}
	pk, err := tbl.GetPrimaryKeyColumn()
	if err != nil {
		t.Fatalf("GetPrimaryKeyColumn failed: %v", err)
	}
	if pk.Name != "id" {
		t.Errorf("Expected pk column id, got %s", pk.Name)
	}
	if tbl.Columns[2].Position != 2 {
		t.Errorf("Expected position 2 for email, got %d", tbl.Columns[2].Position)
	}
}

func TestNewTableRejectsEmptyAndDuplicateColumns(t *testing.T) {
	if _, err := NewTable("empty", nil); err == nil {
		t.Error("Expected error for table without columns")
	}
	if _, err := NewTable("dup", []Column{{Name: "a"}, {Name: "a"}}); err == nil {
		t.Error("Expected error for duplicate column")
	}
}

func TestCompositeKeyHasNoSinglePrimaryKey(t *testing.T) {
	tbl, err := NewTable("memberships", []Column{
		{Name: "user_id", Type: ColumnTypeInteger, PrimaryKey: true},
		{Name: "group_id", Type: ColumnTypeInteger, PrimaryKey: true},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	_, err = tbl.GetPrimaryKeyColumn()
	var npk *errors.NoPrimaryKeyError
	if !stderrors.As(err, &npk) {
		t.Fatalf("Expected NoPrimaryKeyError, got %v", err)
	}
	if len(npk.Columns) != 2 {
		t.Errorf("Expected 2 key columns in error, got %v", npk.Columns)
	}
}

func TestInputColumnsSkipKeysAndGenerated(t *testing.T) {
	tbl := usersTable(t)

	cols := tbl.InputColumns()
	if len(cols) != 2 {
		t.Fatalf("Expected 2 input columns, got %d", len(cols))
	}
	if cols[0].Name != "name" || cols[1].Name != "email" {
		t.Errorf("Unexpected input columns: %+v", cols)
	}
}

func TestCatalogKeepsDiscoveryOrder(t *testing.T) {
	b, _ := NewTable("b", []Column{{Name: "x"}})
	a, _ := NewTable("a", []Column{{Name: "y"}})

	cat, err := NewCatalog(b, a)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	names := cat.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("Expected [b a], got %v", names)
	}
	if !cat.Has("a") {
		t.Error("Expected catalog to have table a")
	}
}

func TestCatalogUnknownTable(t *testing.T) {
	cat := Empty()

	_, err := cat.Table("ghost")
	var ute *errors.UnknownTableError
	if !stderrors.As(err, &ute) {
		t.Fatalf("Expected UnknownTableError, got %v", err)
	}
	if ute.Error() != "Table 'ghost' not found" {
		t.Errorf("Unexpected message: %s", ute.Error())
	}
	if cat.Len() != 0 || len(cat.Names()) != 0 {
		t.Error("Expected empty catalog")
	}
}

func TestCatalogRejectsDuplicateTables(t *testing.T) {
	a1, _ := NewTable("a", []Column{{Name: "x"}})
	a2, _ := NewTable("a", []Column{{Name: "y"}})

	if _, err := NewCatalog(a1, a2); err == nil {
		t.Error("Expected error for duplicate table names")
	}
}
