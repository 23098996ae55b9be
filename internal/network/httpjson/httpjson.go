// Package httpjson holds the JSON response helpers shared by every HTTP surface
package httpjson

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the body of every non-2xx response outside GraphQL
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Write encodes v as the response body with the given status
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response failed", "error", err)
	}
}

// Detail writes {"detail": msg}
func Detail(w http.ResponseWriter, status int, msg string) {
	Write(w, status, ErrorBody{Detail: msg})
}
