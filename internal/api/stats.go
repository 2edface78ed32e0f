package api

import (
	"net/http"
)

// statsResponse is the JSON response for GET /v1/stats.
type statsResponse struct {
	Total         int            `json:"total"`
	Failed        int            `json:"failed"`
	ByArena       map[string]int `json:"by_arena"`
	TotalItems    int64          `json:"total_items"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
	LiveArenas    int            `json:"live_arenas"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDispatchStats(r.Context())
	if err != nil {
		s.logger.Error("get dispatch stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		Total:         stats.Total,
		Failed:        stats.Failed,
		ByArena:       stats.CountByArena,
		TotalItems:    stats.TotalItems,
		AvgDurationMS: stats.AvgDurationMS,
		LiveArenas:    len(s.manager.Arenas()),
	})
}
