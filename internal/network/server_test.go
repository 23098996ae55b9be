package network

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/leengari/graphsql/internal/config"
	domainerrors "github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/network/graphql"
	"github.com/leengari/graphsql/internal/network/rest"
	"github.com/leengari/graphsql/internal/storage/dialect"
	"github.com/leengari/graphsql/internal/storage/loader"
	"github.com/leengari/graphsql/internal/storage/manager"
	"github.com/leengari/graphsql/internal/testutil"
)

func newTestServer(t *testing.T, env map[string]string, ddl ...string) (*Server, *manager.Manager) {
	t.Helper()
	env["DATABASE_URL"] = testutil.SeedMemoryDatabase(t, ddl...)
	cfg, err := config.FromLookup(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}

	mgr, err := manager.New(cfg.DatabaseURL)
	if err != nil {
		t.Fatalf("Manager failed: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	srv, err := NewServer(cfg, mgr, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv, mgr
}

func serve(srv *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Tables   int    `json:"tables"`
	Surfaces map[string]struct {
		State string `json:"state"`
		Error string `json:"error"`
	} `json:"surfaces"`
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) healthBody {
	t.Helper()
	var h healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("Bad health body %s: %v", rec.Body, err)
	}
	return h
}

func TestSurfacesShareCatalog(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{}, testutil.SampleSchema...)

	if err := srv.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	snap := srv.current.Load()
	restTables := snap.rest.handler.(*rest.Handler).Tables()
	gqlTables := snap.graphql.handler.(*graphql.Surface).Tables()
	if !slices.Equal(restTables, gqlTables) {
		t.Errorf("Surfaces disagree: rest=%v graphql=%v", restTables, gqlTables)
	}
	if !slices.Equal(restTables, []string{"users", "audit_log", "memberships"}) {
		t.Errorf("Unexpected tables %v", restTables)
	}

	rec := serve(srv, "GET", "/api/tables", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "memberships") {
		t.Errorf("REST table list: %d %s", rec.Code, rec.Body)
	}
	rec = serve(srv, "POST", "/graphql", `{"query":"{ allMemberships { user_id } }"}`)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), `"errors"`) {
		t.Errorf("GraphQL list: %d %s", rec.Code, rec.Body)
	}
}

func TestHealthAndInfo(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{}, testutil.SampleSchema...)

	rec := serve(srv, "GET", "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Health before build: expected 503, got %d", rec.Code)
	}
	h := decodeHealth(t, rec)
	if h.Surfaces["rest"].State != "uninitialized" {
		t.Errorf("Expected uninitialized REST surface, got %v", h.Surfaces["rest"].State)
	}

	if err := srv.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec = serve(srv, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Health after build: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	h = decodeHealth(t, rec)
	if h.Status != "healthy" || h.Database != "connected" || h.Tables != 3 {
		t.Errorf("Unexpected health %+v", h)
	}
	for _, name := range []string{"rest", "graphql"} {
		if h.Surfaces[name].State != "ready" {
			t.Errorf("Surface %s: expected ready, got %s", name, h.Surfaces[name].State)
		}
	}

	rec = serve(srv, "GET", "/", "")
	var info infoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Version != Version || info.GraphQL != "/graphql" || info.Tables != 3 {
		t.Errorf("Unexpected info %+v", info)
	}

	if rec := serve(srv, "GET", "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Unknown path: expected 404, got %d", rec.Code)
	}
}

func TestFailedBuildAnswers503(t *testing.T) {
	srv, mgr := newTestServer(t, map[string]string{}, testutil.SampleSchema...)
	mgr.Close()

	if err := srv.Build(context.Background()); err == nil {
		t.Fatal("Build against a closed manager should fail")
	}

	for _, path := range []string{"/api/users", "/graphql?query=%7B_schema%7D"} {
		if rec := serve(srv, "GET", path, ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
	}

	rec := serve(srv, "GET", "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
	h := decodeHealth(t, rec)
	if h.Surfaces["graphql"].State != "failed" || h.Surfaces["graphql"].Error == "" {
		t.Errorf("Expected failed graphql surface with a cause, got %+v", h.Surfaces["graphql"])
	}
	if h.Database != "disconnected" {
		t.Errorf("Expected disconnected database, got %s", h.Database)
	}
}

func TestReloadSwapsSurfaces(t *testing.T) {
	srv, mgr := newTestServer(t, map[string]string{}, testutil.SampleSchema...)
	ctx := context.Background()
	if err := srv.Build(ctx); err != nil {
		t.Fatal(err)
	}

	// Warm the table list cache
	if rec := serve(srv, "GET", "/api/tables", ""); strings.Contains(rec.Body.String(), "projects") {
		t.Fatal("projects should not exist yet")
	}

	db, err := mgr.DB()
	if err != nil {
		t.Fatal(err)
	}
	testutil.MustExec(t, db, `CREATE TABLE projects (id INTEGER PRIMARY KEY, title TEXT)`)

	if err := srv.Build(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	rec := serve(srv, "GET", "/api/tables", "")
	if !strings.Contains(rec.Body.String(), "projects") {
		t.Errorf("Reloaded table list should include projects, got %s", rec.Body)
	}
	rec = serve(srv, "POST", "/graphql", `{"query":"mutation { createProjects(data: {title: \"x\"}) { id title } }"}`)
	if !strings.Contains(rec.Body.String(), `"title":"x"`) {
		t.Errorf("GraphQL should expose the new table, got %s", rec.Body)
	}

	// A failing reload keeps the last good surfaces
	mgr.Close()
	if err := srv.Build(ctx); err == nil {
		t.Error("Reload against a closed manager should fail")
	}
	if srv.current.Load().rest.state != SurfaceReady {
		t.Error("Failed reload must not replace ready surfaces")
	}
}

func TestAuthEnabled(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"ENABLE_AUTH":    "true",
		"API_KEY":        "secret-key",
		"JWT_SECRET_KEY": "test-secret",
	}, testutil.SampleSchema...)
	if err := srv.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	if rec := serve(srv, "GET", "/api/users", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("Without credentials: expected 401, got %d", rec.Code)
	}
	if rec := serve(srv, "GET", "/api/users", "", "X-API-Key", "secret-key"); rec.Code != http.StatusOK {
		t.Errorf("With API key: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if rec := serve(srv, "GET", "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("Health must stay open, got %d", rec.Code)
	}

	rec := serve(srv, "POST", "/auth/login", `{"username":"admin","password":"admin123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Login failed: %d %s", rec.Code, rec.Body)
	}
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
		t.Fatal(err)
	}

	rec = serve(srv, "POST", "/graphql", `{"query":"{ allUsers { id } }"}`, "Authorization", "Bearer "+token.AccessToken)
	if rec.Code != http.StatusOK {
		t.Errorf("With bearer token: expected 200, got %d: %s", rec.Code, rec.Body)
	}
}

func TestRateLimitOnAPI(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"RATE_LIMIT_PER_MINUTE": "1",
		"RATE_LIMIT_BURST":      "2",
	}, testutil.SampleSchema...)
	if err := srv.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if rec := serve(srv, "GET", "/api/tables", ""); rec.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec := serve(srv, "GET", "/api/tables", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after the burst, got %d", rec.Code)
	}
	if rec := serve(srv, "GET", "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("Health is not rate limited, got %d", rec.Code)
	}
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"https://app.example.com", "http://localhost:3000"})
	if !slices.Equal(got, []string{"app.example.com", "localhost:3000"}) {
		t.Errorf("Unexpected patterns %v", got)
	}
	if got := originPatterns([]string{"https://a.com", "*"}); !slices.Equal(got, []string{"*"}) {
		t.Errorf("Wildcard should win, got %v", got)
	}
}

// failingDialect reflects like SQLite except for one table
type failingDialect struct {
	dialect.SQLite
	fail string
}

func (d failingDialect) Columns(ctx context.Context, q dialect.Querier, table string) ([]schema.Column, error) {
	if table == d.fail {
		return nil, stderrors.New("permission denied")
	}
	return d.SQLite.Columns(ctx, q, table)
}

// partialSource reflects through failingDialect
type partialSource struct {
	*manager.Manager
	fail string
}

func (p partialSource) Reload(ctx context.Context) (*schema.Catalog, error) {
	db, err := p.DB()
	if err != nil {
		return nil, err
	}
	return loader.LoadCatalog(ctx, db, failingDialect{fail: p.fail})
}

func TestPartialReflectionServesRemainingTables(t *testing.T) {
	url := testutil.SeedMemoryDatabase(t, testutil.SampleSchema...)
	cfg, err := config.FromLookup(func(key string) (string, bool) {
		return url, key == "DATABASE_URL"
	})
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := manager.New(cfg.DatabaseURL)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mgr.Close() })
	srv, err := NewServer(cfg, partialSource{Manager: mgr, fail: "audit_log"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Close)

	err = srv.Build(context.Background())
	var reflectErr *domainerrors.ReflectionError
	if !stderrors.As(err, &reflectErr) {
		t.Fatalf("Expected the skipped table to be reported, got %v", err)
	}

	rec := serve(srv, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Partial catalog should be healthy, got %d: %s", rec.Code, rec.Body)
	}
	h := decodeHealth(t, rec)
	if h.Tables != 2 || h.Surfaces["rest"].State != "ready" || h.Surfaces["graphql"].State != "ready" {
		t.Errorf("Unexpected health %+v", h)
	}

	if rec := serve(srv, "GET", "/api/users", ""); rec.Code != http.StatusOK {
		t.Errorf("users should be served, got %d", rec.Code)
	}
	if rec := serve(srv, "GET", "/api/audit_log", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Skipped table should be unknown, got %d", rec.Code)
	}
	rec = serve(srv, "POST", "/graphql", `{"query":"{ allMemberships { user_id } }"}`)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), `"errors"`) {
		t.Errorf("GraphQL should serve memberships, got %d %s", rec.Code, rec.Body)
	}
}
