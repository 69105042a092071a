package handler

import (
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
}

// health handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"}, or 503 when the database does
// not answer.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.log.ErrorContext(r.Context(), "health check: database ping failed", "error", err)
			writeJSON(w, s.log, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, s.log, http.StatusOK, healthResponse{Status: "ok"})
}
