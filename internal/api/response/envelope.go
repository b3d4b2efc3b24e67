package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the payload of every failed request.
type ErrorBody struct {
	Message string `json:"message"`
}

// JSON writes body as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Success writes a 200 JSON response.
func Success(w http.ResponseWriter, body any) {
	JSON(w, http.StatusOK, body)
}

// Err writes an error JSON response carrying only message.
func Err(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Message: message})
}
