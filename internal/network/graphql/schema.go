// Package graphql generates a GraphQL schema from the catalog: one object
// type and one input type per table, with list, lookup and mutation fields
// resolved through the record engine.
package graphql

import (
	"fmt"
	"log/slog"

	gql "github.com/graphql-go/graphql"

	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/engine"
	"github.com/leengari/graphsql/internal/events"
)

// tableBinding ties a generated type to the table it was built from
type tableBinding struct {
	table      *schema.Table
	typeName   string
	object     *gql.Object
	input      *gql.InputObject // nil when no column can be supplied
	fieldToCol map[string]string
	colToField map[string]string
	queryName  string // single lookup; empty without a single primary key
	listName   string
	createName string
	updateName string
	deleteName string
}

// Surface is the GraphQL API built from one catalog snapshot
type Surface struct {
	schema    *gql.Schema
	engine    *engine.Engine
	publisher events.Publisher
	bindings  []*tableBinding
}

// Option configures a Surface
type Option func(*Surface)

// Build generates the schema for every table of the catalog.
// An empty catalog yields placeholder _schema and _noop fields.
func Build(catalog *schema.Catalog, eng *engine.Engine, pub events.Publisher, opts ...Option) (*Surface, error) {
	s := &Surface{engine: eng, publisher: pub}
	for _, opt := range opts {
		opt(s)
	}

	types := namer{"Query": true, "Mutation": true}
	queries := namer{}
	mutations := namer{}

	queryFields := gql.Fields{}
	mutationFields := gql.Fields{}

	for _, t := range catalog.Tables() {
		b := s.bind(t, types, queries, mutations)
		s.bindings = append(s.bindings, b)
		s.addQueries(queryFields, b)
		s.addMutations(mutationFields, b)
	}

	// An empty root type is not valid GraphQL
	if len(queryFields) == 0 {
		queryFields["_schema"] = &gql.Field{
			Type:        gql.String,
			Description: "Placeholder field when database has no tables",
			Resolve: func(p gql.ResolveParams) (interface{}, error) {
				return "No tables found in database", nil
			},
		}
	}
	if len(mutationFields) == 0 {
		mutationFields["_noop"] = &gql.Field{
			Type:        gql.String,
			Description: "Placeholder mutation when database has no tables",
			Resolve: func(p gql.ResolveParams) (interface{}, error) {
				return nil, nil
			},
		}
	}

	sch, err := gql.NewSchema(gql.SchemaConfig{
		Query:    gql.NewObject(gql.ObjectConfig{Name: "Query", Fields: queryFields}),
		Mutation: gql.NewObject(gql.ObjectConfig{Name: "Mutation", Fields: mutationFields}),
	})
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}
	s.schema = &sch

	slog.Info("GraphQL schema built", "tables", len(s.bindings), "queries", len(queryFields), "mutations", len(mutationFields))
	return s, nil
}

// Schema returns the executable schema
func (s *Surface) Schema() *gql.Schema {
	return s.schema
}

// Tables lists the tables that received a generated type, in catalog order
func (s *Surface) Tables() []string {
	names := make([]string, len(s.bindings))
	for i, b := range s.bindings {
		names[i] = b.table.Name
	}
	return names
}

// Columns lists the columns exposed on a table's object type
func (s *Surface) Columns(table string) []string {
	for _, b := range s.bindings {
		if b.table.Name == table {
			return b.table.ColumnNames()
		}
	}
	return nil
}

func (s *Surface) bind(t *schema.Table, types, queries, mutations namer) *tableBinding {
	stem := pascal(t.Name)
	b := &tableBinding{
		table:      t,
		typeName:   types.unique(stem + "Type"),
		fieldToCol: make(map[string]string, len(t.Columns)),
		colToField: make(map[string]string, len(t.Columns)),
	}

	fields := namer{}
	objectFields := gql.Fields{}
	for _, col := range t.Columns {
		name := fields.unique(fieldName(col.Name))
		b.fieldToCol[name] = col.Name
		b.colToField[col.Name] = name
		scalar := scalarFor(col)
		objectFields[name] = &gql.Field{
			Type:    scalar,
			Resolve: columnResolver(col.Name, scalar == gql.Int),
		}
	}
	b.object = gql.NewObject(gql.ObjectConfig{Name: b.typeName, Fields: objectFields})

	inputFields := gql.InputObjectConfigFieldMap{}
	for _, col := range t.InputColumns() {
		inputFields[b.colToField[col.Name]] = &gql.InputObjectFieldConfig{Type: scalarFor(col)}
	}
	if len(inputFields) > 0 {
		b.input = gql.NewInputObject(gql.InputObjectConfig{
			Name:   types.unique(stem + "Input"),
			Fields: inputFields,
		})
	}

	if t.HasSinglePrimaryKey() {
		b.queryName = queries.unique(camel(t.Name))
		b.updateName = mutations.unique("update" + stem)
		b.deleteName = mutations.unique("delete" + stem)
	}
	b.listName = queries.unique("all" + stem)
	b.createName = mutations.unique("create" + stem)
	return b
}

func (s *Surface) addQueries(fields gql.Fields, b *tableBinding) {
	if b.queryName != "" {
		pk, _ := b.table.GetPrimaryKeyColumn()
		fields[b.queryName] = &gql.Field{
			Type:        b.object,
			Description: fmt.Sprintf("Fetch one %s record by primary key", b.table.Name),
			Args: gql.FieldConfigArgument{
				"id": &gql.ArgumentConfig{Type: gql.NewNonNull(scalarFor(*pk))},
			},
			Resolve: s.resolveGet(b),
		}
	}

	fields[b.listName] = &gql.Field{
		Type:        gql.NewList(b.object),
		Description: fmt.Sprintf("List %s records", b.table.Name),
		Args: gql.FieldConfigArgument{
			"limit":  &gql.ArgumentConfig{Type: gql.Int},
			"offset": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 0},
		},
		Resolve: s.resolveList(b),
	}
}

func (s *Surface) addMutations(fields gql.Fields, b *tableBinding) {
	create := &gql.Field{
		Type:        b.object,
		Description: fmt.Sprintf("Insert a %s record", b.table.Name),
		Args:        gql.FieldConfigArgument{},
		Resolve:     s.resolveCreate(b),
	}
	if b.input != nil {
		create.Args["data"] = &gql.ArgumentConfig{Type: b.input}
	}
	fields[b.createName] = create

	if b.queryName == "" {
		return
	}
	pk, _ := b.table.GetPrimaryKeyColumn()
	idArg := &gql.ArgumentConfig{Type: gql.NewNonNull(scalarFor(*pk))}

	if b.input != nil {
		fields[b.updateName] = &gql.Field{
			Type:        b.object,
			Description: fmt.Sprintf("Update a %s record; omitted fields keep their value", b.table.Name),
			Args: gql.FieldConfigArgument{
				"id":   idArg,
				"data": &gql.ArgumentConfig{Type: gql.NewNonNull(b.input)},
			},
			Resolve: s.resolveUpdate(b),
		}
	}
	fields[b.deleteName] = &gql.Field{
		Type:        gql.Boolean,
		Description: fmt.Sprintf("Delete a %s record", b.table.Name),
		Args:        gql.FieldConfigArgument{"id": idArg},
		Resolve:     s.resolveDelete(b),
	}
}
