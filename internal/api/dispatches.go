package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/anvil"
	"github.com/seantiz/anvil/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// listDispatchesResponse wraps the paginated list response.
type listDispatchesResponse struct {
	Dispatches []*store.Dispatch `json:"dispatches"`
	Total      int               `json:"total"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

// recordsResponse is the JSON response for GET /v1/dispatches/{id}/records.
type recordsResponse struct {
	DispatchID string         `json:"dispatch_id"`
	Records    []anvil.Record `json:"records"`
}

func (s *Server) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	dispatches, total, err := s.store.ListDispatches(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list dispatches", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list dispatches")
		return
	}

	s.writeJSON(w, http.StatusOK, listDispatchesResponse{
		Dispatches: dispatches,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *Server) handleGetDispatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.store.GetDispatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "dispatch not found")
		return
	}
	if err != nil {
		s.logger.Error("get dispatch", "dispatch_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get dispatch")
		return
	}

	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetDispatchRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetDispatch(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "dispatch not found")
		return
	} else if err != nil {
		s.logger.Error("get dispatch", "dispatch_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get dispatch")
		return
	}

	records, err := s.store.GetRecords(r.Context(), id)
	if err != nil {
		s.logger.Error("get dispatch records", "dispatch_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get records")
		return
	}

	s.writeJSON(w, http.StatusOK, recordsResponse{DispatchID: id, Records: records})
}

// queryInt parses an integer query parameter, returning fallback when absent
// or malformed.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// writeJSON writes v as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
