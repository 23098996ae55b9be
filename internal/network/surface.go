package network

import (
	"net/http"

	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/network/httpjson"
)

// SurfaceState tracks the build of one generated API surface
type SurfaceState int

const (
	SurfaceUninitialized SurfaceState = iota
	SurfaceBuilding
	SurfaceReady
	SurfaceFailed
)

func (s SurfaceState) String() string {
	switch s {
	case SurfaceUninitialized:
		return "uninitialized"
	case SurfaceBuilding:
		return "building"
	case SurfaceReady:
		return "ready"
	case SurfaceFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s SurfaceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// surface is one generated API with the outcome of its build
type surface struct {
	state   SurfaceState
	err     error
	handler http.Handler
}

// snapshot is everything built from one catalog. It is replaced as a whole.
type snapshot struct {
	catalog *schema.Catalog
	rest    surface
	graphql surface
}

func (s *snapshot) tables() int {
	if s.catalog == nil {
		return 0
	}
	return s.catalog.Len()
}

func (s *snapshot) healthy() bool {
	return s.rest.state == SurfaceReady && s.graphql.state == SurfaceReady
}

// gate answers 503 unless the surface picked from the current snapshot is ready
func (srv *Server) gate(name string, pick func(*snapshot) surface) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sf := pick(srv.current.Load())
		if sf.state != SurfaceReady || sf.handler == nil {
			httpjson.Detail(w, http.StatusServiceUnavailable, name+" API is "+sf.state.String())
			return
		}
		sf.handler.ServeHTTP(w, r)
	})
}
