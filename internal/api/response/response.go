package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Err writes an error JSON response carrying only the message.
func Err(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}
