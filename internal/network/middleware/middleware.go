// Package middleware wraps the API surfaces with the cross-cutting HTTP concerns
package middleware

import (
	"net/http"
)

// Middleware decorates a handler
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed runs first
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
