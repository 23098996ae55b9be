package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/leengari/graphsql/internal/cache"
	"github.com/leengari/graphsql/internal/domain/data"
	"github.com/leengari/graphsql/internal/domain/schema"
	"github.com/leengari/graphsql/internal/events"
	"github.com/leengari/graphsql/internal/network/httpjson"
)

type tablesResponse struct {
	Tables []string `json:"tables"`
}

type pageResponse struct {
	Data   []data.Record `json:"data"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// withTable answers 404 for tables missing from the catalog before the engine is involved
func (h *Handler) withTable(next func(http.ResponseWriter, *http.Request, *schema.Table)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.catalog.Table(r.PathValue("table"))
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, t)
	}
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	var resp tablesResponse
	if cache.GetJSON(r.Context(), h.cache, keyTableList, &resp) {
		httpjson.Write(w, http.StatusOK, resp)
		return
	}

	resp = tablesResponse{Tables: h.catalog.Names()}
	cache.SetJSON(r.Context(), h.cache, keyTableList, resp, h.cacheTTL)
	httpjson.Write(w, http.StatusOK, resp)
}

func (h *Handler) tableInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("table")
	key := keyTableInfoFn + name

	// Served before the catalog lookup; Server.Build purges these keys so a
	// dropped table cannot be answered from cache.
	var cached schema.Table
	if cache.GetJSON(r.Context(), h.cache, key, &cached) {
		httpjson.Write(w, http.StatusOK, cached)
		return
	}

	t, err := h.catalog.Table(name)
	if err != nil {
		writeError(w, err)
		return
	}
	info := *t
	if info.PrimaryKey == nil {
		info.PrimaryKey = []string{}
	}
	cache.SetJSON(r.Context(), h.cache, key, info, h.cacheTTL)
	httpjson.Write(w, http.StatusOK, info)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request, t *schema.Table) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.engine.List(r.Context(), t.Name, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, pageResponse{
		Data:   page.Records,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request, t *schema.Table) {
	rec, err := h.engine.Get(r.Context(), t.Name, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, rec)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request, t *schema.Table) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.engine.Create(r.Context(), t.Name, body)
	if err != nil {
		writeError(w, err)
		return
	}
	events.PublishChange(r.Context(), h.publisher, t.Name, events.ActionCreated, rec)
	httpjson.Write(w, http.StatusCreated, rec)
}

// updateRecord serves both PUT and PATCH: only the supplied columns change
func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request, t *schema.Table) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.engine.Update(r.Context(), t.Name, r.PathValue("id"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	events.PublishChange(r.Context(), h.publisher, t.Name, events.ActionUpdated, rec)
	httpjson.Write(w, http.StatusOK, rec)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, t *schema.Table) {
	id := r.PathValue("id")
	if err := h.engine.Delete(r.Context(), t.Name, id); err != nil {
		writeError(w, err)
		return
	}
	if key, err := h.engine.KeyRecord(t.Name, id); err == nil {
		events.PublishChange(r.Context(), h.publisher, t.Name, events.ActionDeleted, key)
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request) (data.Record, error) {
	rec, err := data.DecodeRecord(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &badRequest{msg: "Request body too large"}
		}
		return nil, &badRequest{msg: err.Error()}
	}
	return rec, nil
}

// intParam reads an optional integer query parameter; absent means 0
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &badRequest{msg: "Query parameter '" + name + "' must be an integer"}
	}
	return n, nil
}

// badRequest is a malformed request that never reached the engine
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }
