package api

import (
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
	Arenas int    `json:"arenas"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Arenas: len(s.manager.Arenas()),
	})
}
