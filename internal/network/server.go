// Package network composes the generated API surfaces into one HTTP server.
package network

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leengari/graphsql/internal/auth"
	"github.com/leengari/graphsql/internal/cache"
	"github.com/leengari/graphsql/internal/config"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/engine"
	"github.com/leengari/graphsql/internal/events"
	"github.com/leengari/graphsql/internal/network/graphql"
	"github.com/leengari/graphsql/internal/network/httpjson"
	"github.com/leengari/graphsql/internal/network/middleware"
	"github.com/leengari/graphsql/internal/network/rest"
	"github.com/leengari/graphsql/internal/storage/dialect"
)

// Version is reported by / and the version command
const Version = "1.0.0"

const shutdownTimeout = 10 * time.Second

// CatalogSource owns the pool and reflects the catalog; *manager.Manager implements it
type CatalogSource interface {
	DB() (*sql.DB, error)
	Dialect() dialect.Dialect
	// Reload returns the partial catalog alongside a *errors.ReflectionError
	Reload(ctx context.Context) (*schema.Catalog, error)
}

// Server serves the REST, GraphQL, WebSocket and auth routes of one database
type Server struct {
	cfg      config.Config
	manager  CatalogSource
	logger   *slog.Logger
	cache    cache.Cache
	sessions *cache.SessionStore
	tokens   *auth.Tokens
	hub      *events.Hub
	observer engine.Observer

	current atomic.Pointer[snapshot]
	handler http.Handler
}

// NewServer wires the collaborators. Surfaces are not built until Build.
func NewServer(cfg config.Config, mgr CatalogSource, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := cache.New(cache.Config{Prefix: cfg.CachePrefix, DefaultTTL: cfg.CacheTTL})
	if err != nil {
		return nil, err
	}
	users, err := auth.DemoUsers()
	if err != nil {
		store.Close()
		return nil, err
	}

	srv := &Server{
		cfg:      cfg,
		manager:  mgr,
		logger:   logger,
		cache:    store,
		sessions: cache.NewSessionStore(store, cfg.SessionPrefix, cfg.SessionTTL),
		tokens:   auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiration),
		hub:      events.NewHub(),
		observer: engine.NewLoggingObserver(),
	}
	srv.current.Store(&snapshot{})
	srv.handler = srv.routes(users)
	return srv, nil
}

func (srv *Server) routes(users auth.Users) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", srv.info)
	mux.HandleFunc("GET /health", srv.health)

	limiter := middleware.NewRateLimiter(srv.cfg.RateLimitPerMinute, srv.cfg.RateLimitBurst)
	guard := []middleware.Middleware{limiter.Middleware()}
	if srv.cfg.EnableAuth {
		guard = append(guard, middleware.RequireAuth(srv.tokens, srv.cfg.APIKey))
	}

	mux.Handle("/api/", middleware.Chain(srv.gate("REST", func(s *snapshot) surface { return s.rest }), guard...))
	mux.Handle("/graphql", middleware.Chain(srv.gate("GraphQL", func(s *snapshot) surface { return s.graphql }), guard...))

	var check events.TokenCheck
	if srv.cfg.EnableAuth {
		check = func(token string) error {
			_, err := srv.tokens.Verify(token)
			return err
		}
	}
	mux.Handle("GET /ws", events.NewStreamHandler(srv.hub, check, originPatterns(srv.cfg.CORSOrigins)))

	auth.NewRoutes(users, srv.tokens, srv.sessions).Register(mux)

	return middleware.Chain(mux,
		middleware.RequestLogger(srv.logger),
		middleware.CORS(srv.cfg.CORSOrigins),
	)
}

// Handler returns the root handler with all middleware applied
func (srv *Server) Handler() http.Handler {
	return srv.handler
}

// Build reflects the database and generates both surfaces from the same catalog.
// Failures are recorded in the surface states rather than returned, so the
// server keeps answering /health. The returned error is for logging.
func (srv *Server) Build(ctx context.Context) error {
	prev := srv.current.Load()
	if prev.catalog == nil {
		srv.current.Store(&snapshot{
			rest:    surface{state: SurfaceBuilding},
			graphql: surface{state: SurfaceBuilding},
		})
	}

	next, err := srv.build(ctx)
	if next.catalog == nil && prev.catalog != nil {
		// Keep serving the previous catalog when a reload cannot reach the store
		srv.logger.Error("Catalog reload failed, keeping previous surfaces", "error", err)
		return err
	}

	srv.current.Store(next)
	if prev.catalog != nil {
		rest.PurgeCatalogCache(ctx, srv.cache, prev.catalog, next.catalog)
	}
	srv.logger.Info("API surfaces published",
		"tables", next.tables(),
		"rest", next.rest.state,
		"graphql", next.graphql.state,
	)
	return err
}

func (srv *Server) build(ctx context.Context) (*snapshot, error) {
	failed := func(err error) *snapshot {
		return &snapshot{
			rest:    surface{state: SurfaceFailed, err: err},
			graphql: surface{state: SurfaceFailed, err: err},
		}
	}

	catalog, reflectErr := srv.manager.Reload(ctx)
	if catalog == nil {
		return failed(reflectErr), reflectErr
	}
	if reflectErr != nil {
		srv.logger.Warn("Catalog loaded with skipped tables", "error", reflectErr)
	}

	db, err := srv.manager.DB()
	if err != nil {
		return failed(err), err
	}
	eng := engine.New(db, srv.manager.Dialect(), catalog,
		engine.WithPageSizes(srv.cfg.DefaultPageSize, srv.cfg.MaxPageSize),
		engine.WithObserver(srv.observer),
	)

	next := &snapshot{catalog: catalog}
	next.rest = surface{
		state:   SurfaceReady,
		handler: rest.New(catalog, eng, rest.WithCache(srv.cache, srv.cfg.CacheTTL), rest.WithPublisher(srv.hub)),
	}

	gqlSurface, err := graphql.Build(catalog, eng, srv.hub)
	if err != nil {
		srv.logger.Error("GraphQL surface failed", "error", err)
		next.graphql = surface{state: SurfaceFailed, err: err}
		return next, err
	}
	next.graphql = surface{state: SurfaceReady, handler: gqlSurface}
	return next, reflectErr
}

// Start builds the surfaces and serves until ctx is cancelled or SIGINT/SIGTERM
// arrives. SIGHUP reloads the catalog.
func (srv *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Build(ctx); err != nil {
		srv.logger.Error("Initial build incomplete", "error", err)
	}

	httpServer := &http.Server{
		Addr:         srv.cfg.Addr(),
		Handler:      srv.handler,
		ReadTimeout:  srv.cfg.ReadTimeout,
		WriteTimeout: srv.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.logger.Info("Running on address", "addr", httpServer.Addr, "auth", srv.cfg.EnableAuth)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				srv.logger.Info("Reloading catalog")
				_ = srv.Build(gctx)
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		srv.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	srv.Close()
	return err
}

// Close releases the hub and cache. The manager is owned by the caller.
func (srv *Server) Close() {
	srv.hub.Close()
	srv.cache.Close()
}

type infoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	REST      string `json:"rest"`
	GraphQL   string `json:"graphql"`
	WebSocket string `json:"websocket"`
	Health    string `json:"health"`
	Tables    int    `json:"tables"`
	Auth      bool   `json:"auth"`
}

func (srv *Server) info(w http.ResponseWriter, r *http.Request) {
	snap := srv.current.Load()
	httpjson.Write(w, http.StatusOK, infoResponse{
		Name:      "GraphSQL",
		Version:   Version,
		REST:      "/api",
		GraphQL:   "/graphql",
		WebSocket: "/ws",
		Health:    "/health",
		Tables:    snap.tables(),
		Auth:      srv.cfg.EnableAuth,
	})
}

type surfaceHealth struct {
	State SurfaceState `json:"state"`
	Error string       `json:"error,omitempty"`
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database"`
	Tables   int                      `json:"tables"`
	Surfaces map[string]surfaceHealth `json:"surfaces"`
}

func (srv *Server) health(w http.ResponseWriter, r *http.Request) {
	snap := srv.current.Load()
	resp := healthResponse{
		Status:   "healthy",
		Database: "connected",
		Tables:   snap.tables(),
		Surfaces: map[string]surfaceHealth{
			"rest":    describe(snap.rest),
			"graphql": describe(snap.graphql),
		},
	}

	if db, err := srv.manager.DB(); err != nil || db.PingContext(r.Context()) != nil {
		resp.Database = "disconnected"
		resp.Status = "unhealthy"
	}
	if !snap.healthy() {
		resp.Status = "unhealthy"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	httpjson.Write(w, status, resp)
}

func describe(sf surface) surfaceHealth {
	h := surfaceHealth{State: sf.state}
	if sf.err != nil {
		h.Error = sf.err.Error()
	}
	return h
}

// originPatterns maps CORS origins to websocket origin patterns
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		patterns = append(patterns, o)
	}
	return patterns
}
