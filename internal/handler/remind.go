package handler

import (
	"net/http"
)

type remindResponse struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// remind handles POST /tasks/remind, called once a day by an external
// scheduler. A 500 means nothing was sent and the run can be retried. Once
// any team has been tried the answer is 200 with a failure count, because a
// retry would remind the other teams twice.
func (s *Server) remind(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reminder.RemindAll(r.Context())
	if err != nil && stats.Sent == 0 && stats.Failed == 0 {
		s.log.ErrorContext(r.Context(), "reminders not run", "op", "remind", "error", err)
		writeError(w, s.log, http.StatusInternalServerError, "remind_failed", "reminders could not be run")
		return
	}
	if err != nil {
		s.log.WarnContext(r.Context(), "reminders incomplete", "op", "remind",
			"sent", stats.Sent, "failed", stats.Failed, "error", err)
	}
	writeJSON(w, s.log, http.StatusOK, remindResponse{Sent: stats.Sent, Failed: stats.Failed})
}
