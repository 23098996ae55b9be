// Package rest generates the uniform per-table REST API under /api.
// Table names are resolved against the catalog on every request, so one set
// of routes serves every reflected table.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/leengari/graphsql/internal/cache"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/engine"
	"github.com/leengari/graphsql/internal/events"
)

const maxBodyBytes = 1 << 20

// Cache keys of catalog responses
const (
	keyTableList   = "tables:list"
	keyTableInfoFn = "tables:info:"
)

// Handler serves /api for one catalog snapshot
type Handler struct {
	catalog   *schema.Catalog
	engine    *engine.Engine
	cache     cache.Cache
	cacheTTL  time.Duration
	publisher events.Publisher
	mux       *http.ServeMux
}

// Option configures a Handler
type Option func(*Handler)

// WithCache serves the table list and table info through c
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(h *Handler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithPublisher announces every successful mutation on pub
func WithPublisher(pub events.Publisher) Option {
	return func(h *Handler) {
		h.publisher = pub
	}
}

// New builds the REST surface. The engine must be bound to the same catalog.
func New(catalog *schema.Catalog, eng *engine.Engine, opts ...Option) *Handler {
	h := &Handler{
		catalog: catalog,
		engine:  eng,
		cache:   cache.Noop{},
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("GET /api/tables", h.listTables)
	h.mux.HandleFunc("GET /api/tables/{table}/info", h.tableInfo)
	h.mux.HandleFunc("GET /api/{table}", h.withTable(h.listRecords))
	h.mux.HandleFunc("POST /api/{table}", h.withTable(h.createRecord))
	h.mux.HandleFunc("GET /api/{table}/{id}", h.withTable(h.getRecord))
	h.mux.HandleFunc("PUT /api/{table}/{id}", h.withTable(h.updateRecord))
	h.mux.HandleFunc("PATCH /api/{table}/{id}", h.withTable(h.updateRecord))
	h.mux.HandleFunc("DELETE /api/{table}/{id}", h.withTable(h.deleteRecord))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Tables lists the tables this surface exposes
func (h *Handler) Tables() []string {
	return h.catalog.Names()
}

// PurgeCatalogCache drops the cached catalog responses of the given snapshots.
// Called when a reload replaces the catalog.
func PurgeCatalogCache(ctx context.Context, c cache.Cache, catalogs ...*schema.Catalog) {
	c.Delete(ctx, keyTableList)
	for _, catalog := range catalogs {
		if catalog == nil {
			continue
		}
		for _, name := range catalog.Names() {
			c.Delete(ctx, keyTableInfoFn+name)
		}
	}
}
