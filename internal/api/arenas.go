package api

import (
	"net/http"

	"github.com/seantiz/anvil"
)

// listArenasResponse is the JSON response for GET /v1/arenas.
type listArenasResponse struct {
	Arenas []anvil.ArenaInfo `json:"arenas"`
	Labels []string          `json:"labels"`
}

// handleListArenas reports the live arena registry: every arena created so
// far with its concurrency, plus the dispatch labels currently held by the
// tracker.
func (s *Server) handleListArenas(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, listArenasResponse{
		Arenas: s.manager.Arenas(),
		Labels: s.manager.Tracker().Labels(),
	})
}
