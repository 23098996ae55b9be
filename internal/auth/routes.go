package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leengari/graphsql/internal/cache"
	"github.com/leengari/graphsql/internal/network/httpjson"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Routes serves /auth/login and /auth/logout
type Routes struct {
	users    Users
	tokens   *Tokens
	sessions *cache.SessionStore // optional
}

func NewRoutes(users Users, tokens *Tokens, sessions *cache.SessionStore) *Routes {
	return &Routes{users: users, tokens: tokens, sessions: sessions}
}

// Register mounts the routes on mux
func (rt *Routes) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", rt.login)
	mux.HandleFunc("POST /auth/logout", rt.logout)
}

func (rt *Routes) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		httpjson.Detail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	user, err := rt.users.Authenticate(req.Username, req.Password)
	if err != nil {
		slog.Info("login rejected", "username", req.Username)
		httpjson.Detail(w, http.StatusUnauthorized, err.Error())
		return
	}

	sessionID := uuid.NewString()
	if rt.sessions != nil {
		sess, err := rt.sessions.Create(r.Context(), user.ID, user.Scope)
		if err != nil {
			slog.Debug("session store failed", "user_id", user.ID, "error", err)
		} else {
			sessionID = sess.ID
		}
	}

	token, err := rt.tokens.Issue(user.ID, user.Scope, sessionID)
	if err != nil {
		slog.Error("issue token failed", "user_id", user.ID, "error", err)
		httpjson.Detail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	slog.Debug("JWT token created", "user_id", user.ID)
	httpjson.Write(w, http.StatusOK, token)
}

func (rt *Routes) logout(w http.ResponseWriter, r *http.Request) {
	claims, err := rt.tokens.Verify(BearerToken(r))
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		httpjson.Detail(w, http.StatusUnauthorized, err.Error())
		return
	}
	if rt.sessions != nil && claims.ID != "" {
		if sess, ok := rt.sessions.Get(r.Context(), claims.ID); ok {
			rt.sessions.Delete(r.Context(), sess.ID)
			slog.Debug("session ended", "user_id", sess.UserID, "age", time.Since(sess.CreatedAt))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// IsExpired reports whether err means an expired token
func IsExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}
