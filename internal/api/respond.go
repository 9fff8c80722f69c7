package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody is the contractual error shape: a single human-readable field.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response. Internal details never reach the
// client; callers pass a generic message and log the cause themselves.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
