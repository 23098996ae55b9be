package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leengari/graphsql/internal/auth"
	"github.com/leengari/graphsql/internal/network/httpjson"
)

type claimsKey struct{}

// ClaimsFrom returns the verified claims of the request, if any
func ClaimsFrom(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return c, ok
}

// RequireAuth lets a request through when it carries a valid bearer token
// or the static API key in X-API-Key. An empty apiKey disables key access.
func RequireAuth(verifier auth.Verifier, apiKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				if key := r.Header.Get("X-API-Key"); key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			claims, err := verifier.Verify(auth.BearerToken(r))
			if err != nil {
				slog.Debug("request rejected", "path", r.URL.Path, "error", err)
				w.Header().Set("WWW-Authenticate", "Bearer")
				msg := err.Error()
				if !auth.IsExpired(err) && !errors.Is(err, auth.ErrMissingToken) {
					msg = auth.ErrInvalidToken.Error()
				}
				httpjson.Detail(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}
