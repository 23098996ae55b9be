package graphql

import (
	"encoding/json"
	"net/http"

	gql "github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/leengari/graphsql/internal/network/httpjson"
)

const maxRequestBytes = 1 << 20

// request is the standard GraphQL over HTTP payload
type request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// ServeHTTP executes POST {query, variables, operationName} and GET ?query= requests
func (s *Surface) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if raw := q.Get("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				writeRequestError(w, "variables must be a JSON object")
				return
			}
		}
	case http.MethodPost:
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		if err := dec.Decode(&req); err != nil {
			writeRequestError(w, "body must be a JSON object with a query")
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		httpjson.Detail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if req.Query == "" {
		writeRequestError(w, "query is required")
		return
	}
	// Mutations over GET could be triggered by a cross-site link
	if r.Method == http.MethodGet && selectsMutation(req.Query, req.OperationName) {
		w.Header().Set("Allow", "POST")
		httpjson.Detail(w, http.StatusMethodNotAllowed, "Mutations require POST")
		return
	}

	result := gql.Do(gql.Params{
		Schema:         *s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})
	httpjson.Write(w, http.StatusOK, result)
}

// selectsMutation reports whether the operation that would run is a mutation.
// Documents that do not parse are left for execution to report.
func selectsMutation(query, operationName string) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok || op.Operation != ast.OperationTypeMutation {
			continue
		}
		if operationName == "" || (op.Name != nil && op.Name.Value == operationName) {
			return true
		}
	}
	return false
}

func writeRequestError(w http.ResponseWriter, msg string) {
	httpjson.Write(w, http.StatusBadRequest, gql.Result{
		Errors: []gqlerrors.FormattedError{gqlerrors.NewFormattedError(msg)},
	})
}
