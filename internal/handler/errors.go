package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse is the JSON error body of the non-Slack endpoints.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v with status. Encoding failures can only be logged: the
// status line is already sent.
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response", "error", err)
	}
}

// writeError sends an errorResponse. message is shown to the client, so it
// never carries internal error text.
func writeError(w http.ResponseWriter, log *slog.Logger, status int, code, message string) {
	writeJSON(w, log, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// badRequest rejects a payload that could not be decoded.
func badRequest(w http.ResponseWriter, log *slog.Logger, message string) {
	writeError(w, log, http.StatusBadRequest, "bad_request", message)
}
