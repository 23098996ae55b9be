package rest

import (
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/leengari/graphsql/internal/domain/errors"
	"github.com/leengari/graphsql/internal/network/httpjson"
)

// StatusFor maps an engine error onto an HTTP status
func StatusFor(err error) int {
	var (
		unknownTable *domainerrors.UnknownTableError
		notFound     *domainerrors.NotFoundError
		noKey        *domainerrors.NoPrimaryKeyError
		validation   *domainerrors.ValidationError
		bad          *badRequest
	)
	switch {
	case errors.As(err, &unknownTable), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &noKey), errors.As(err, &validation), errors.As(err, &bad):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"detail": ...}. Messages of unexpected store
// failures stay in the log.
func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "Internal database error"
	}
	httpjson.Detail(w, status, msg)
}
