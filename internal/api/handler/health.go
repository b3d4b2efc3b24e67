package handler

import (
	"net/http"

	"github.com/daap14/todolist/internal/api/response"
)

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP answers the load balancer probe without touching the database.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, "OK")
}
