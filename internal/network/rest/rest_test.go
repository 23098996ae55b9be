package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leengari/graphsql/internal/cache"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/engine"
	"github.com/leengari/graphsql/internal/events"
	"github.com/leengari/graphsql/internal/storage/dialect"
	"github.com/leengari/graphsql/internal/storage/loader"
	"github.com/leengari/graphsql/internal/testutil"
)

type fixture struct {
	handler *Handler
	hub     *events.Hub
	cache   *cache.Store
}

func newFixture(t *testing.T, ddl ...string) *fixture {
	t.Helper()
	db := testutil.OpenMemoryDB(t, ddl...)
	catalog, err := loader.LoadCatalog(context.Background(), db, dialect.SQLite{})
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	store, err := cache.New(cache.Config{Prefix: "rest:", DefaultTTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(store.Close)
	hub := events.NewHub()
	t.Cleanup(hub.Close)

	eng := engine.New(db, dialect.SQLite{}, catalog, engine.WithPageSizes(2, 3))
	return &fixture{
		handler: New(catalog, eng, WithCache(store, time.Minute), WithPublisher(hub)),
		hub:     hub,
		cache:   store,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Response is not a JSON object: %s", rec.Body)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body)
	}
}

func TestListTablesAndInfo(t *testing.T) {
	f := newFixture(t, testutil.SampleSchema...)

	rec := f.do(t, "GET", "/api/tables", "")
	expectStatus(t, rec, http.StatusOK)
	tables := decode(t, rec)["tables"].([]any)
	if len(tables) != 3 || tables[0] != "users" {
		t.Errorf("Unexpected tables %v", tables)
	}
	if _, ok := f.cache.Get(context.Background(), keyTableList); !ok {
		t.Error("Table list should be cached")
	}

	rec = f.do(t, "GET", "/api/tables/users/info", "")
	expectStatus(t, rec, http.StatusOK)
	info := decode(t, rec)
	if info["name"] != "users" {
		t.Errorf("Unexpected info name %v", info["name"])
	}
	if pks := info["primary_keys"].([]any); len(pks) != 1 || pks[0] != "id" {
		t.Errorf("Unexpected primary keys %v", pks)
	}
	cols := info["columns"].([]any)
	first := cols[0].(map[string]any)
	if first["name"] != "id" || first["type"] != "integer" || first["primary_key"] != true {
		t.Errorf("Unexpected first column %v", first)
	}

	rec = f.do(t, "GET", "/api/tables/audit_log/info", "")
	expectStatus(t, rec, http.StatusOK)
	if pks := decode(t, rec)["primary_keys"].([]any); len(pks) != 0 {
		t.Errorf("Keyless table should report an empty key list, got %v", pks)
	}

	rec = f.do(t, "GET", "/api/tables/missing/info", "")
	expectStatus(t, rec, http.StatusNotFound)
	if decode(t, rec)["detail"] != "Table 'missing' not found" {
		t.Errorf("Unexpected detail %s", rec.Body)
	}
}

func TestEmptyCatalogListsNoTables(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "GET", "/api/tables", "")
	expectStatus(t, rec, http.StatusOK)
	if strings.TrimSpace(rec.Body.String()) != `{"tables":[]}` {
		t.Errorf("Expected an empty list, got %s", rec.Body)
	}
}

func TestCRUDRoundTrip(t *testing.T) {
	f := newFixture(t, testutil.SampleSchema...)
	sub, _ := f.hub.Subscribe(events.BuildChannel("users"))

	rec := f.do(t, "POST", "/api/users", `{"name": "Ada", "email": "ada@example.com"}`)
	expectStatus(t, rec, http.StatusCreated)
	created := decode(t, rec)
	if created["id"] != float64(1) || created["name"] != "Ada" {
		t.Fatalf("Unexpected created record %v", created)
	}

	rec = f.do(t, "GET", "/api/users/1", "")
	expectStatus(t, rec, http.StatusOK)
	if decode(t, rec)["email"] != "ada@example.com" {
		t.Errorf("Round trip lost the email: %s", rec.Body)
	}

	for _, method := range []string{"PUT", "PATCH"} {
		rec = f.do(t, method, "/api/users/1", `{"age": 36}`)
		expectStatus(t, rec, http.StatusOK)
		updated := decode(t, rec)
		if updated["age"] != float64(36) || updated["name"] != "Ada" {
			t.Errorf("%s should only change age, got %v", method, updated)
		}
	}

	rec = f.do(t, "DELETE", "/api/users/1", "")
	expectStatus(t, rec, http.StatusNoContent)
	expectStatus(t, f.do(t, "GET", "/api/users/1", ""), http.StatusNotFound)
	rec = f.do(t, "DELETE", "/api/users/1", "")
	expectStatus(t, rec, http.StatusNotFound)
	if decode(t, rec)["detail"] != "Record not found" {
		t.Errorf("Unexpected detail %s", rec.Body)
	}

	var actions []string
	for len(sub.C) > 0 {
		var ev events.ChangeEvent
		if err := json.Unmarshal(<-sub.C, &ev); err != nil {
			t.Fatal(err)
		}
		actions = append(actions, ev.Action)
	}
	want := []string{"created", "updated", "updated", "deleted"}
	if strings.Join(actions, ",") != strings.Join(want, ",") {
		t.Errorf("Expected events %v, got %v", want, actions)
	}
}

func TestListPagination(t *testing.T) {
	f := newFixture(t, testutil.SampleSchema...)
	for i := 0; i < 5; i++ {
		expectStatus(t, f.do(t, "POST", "/api/audit_log", `{"message": "m"}`), http.StatusCreated)
	}

	rec := f.do(t, "GET", "/api/audit_log?limit=100&offset=1", "")
	expectStatus(t, rec, http.StatusOK)
	page := decode(t, rec)
	if page["limit"] != float64(3) || page["offset"] != float64(1) || page["total"] != float64(5) {
		t.Errorf("Unexpected page metadata %v", page)
	}
	if len(page["data"].([]any)) != 3 {
		t.Errorf("Expected 3 records, got %v", page["data"])
	}

	rec = f.do(t, "GET", "/api/audit_log", "")
	expectStatus(t, rec, http.StatusOK)
	if decode(t, rec)["limit"] != float64(2) {
		t.Errorf("Missing limit should use the default page size: %s", rec.Body)
	}

	expectStatus(t, f.do(t, "GET", "/api/audit_log?limit=abc", ""), http.StatusBadRequest)
	expectStatus(t, f.do(t, "GET", "/api/audit_log?offset=-1", ""), http.StatusBadRequest)
}

func TestErrorStatuses(t *testing.T) {
	f := newFixture(t, testutil.SampleSchema...)

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"unknown table list", "GET", "/api/nope", "", http.StatusNotFound},
		{"unknown table create", "POST", "/api/nope", `{}`, http.StatusNotFound},
		{"unknown record", "GET", "/api/users/42", "", http.StatusNotFound},
		{"non-integer id", "GET", "/api/users/abc", "", http.StatusBadRequest},
		{"keyless get", "GET", "/api/audit_log/1", "", http.StatusBadRequest},
		{"composite key delete", "DELETE", "/api/memberships/1", "", http.StatusBadRequest},
		{"not null violation", "POST", "/api/users", `{"email": "x@example.com"}`, http.StatusBadRequest},
		{"unknown column", "POST", "/api/users", `{"name": "x", "shoe_size": 9}`, http.StatusBadRequest},
		{"malformed body", "POST", "/api/users", `{"name": `, http.StatusBadRequest},
		{"nested body", "POST", "/api/users", `{"name": {"first": "Ada"}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			expectStatus(t, rec, tt.want)
			if decode(t, rec)["detail"] == "" {
				t.Error("Error responses must carry a detail message")
			}
		})
	}
}

func TestPurgeCatalogCache(t *testing.T) {
	f := newFixture(t, testutil.SampleSchema...)
	f.do(t, "GET", "/api/tables", "")
	f.do(t, "GET", "/api/tables/users/info", "")

	catalog, _ := schema.NewCatalog(&schema.Table{Name: "users", Columns: []schema.Column{{Name: "id"}}})
	PurgeCatalogCache(context.Background(), f.cache, catalog)

	if _, ok := f.cache.Get(context.Background(), keyTableList); ok {
		t.Error("Table list should be purged")
	}
	if _, ok := f.cache.Get(context.Background(), keyTableInfoFn+"users"); ok {
		t.Error("Table info should be purged")
	}
}
