package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/daap14/todolist/internal/api/handler"
	"github.com/daap14/todolist/internal/api/middleware"
	"github.com/daap14/todolist/internal/todo"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Todos          todo.Repository
	AllowedOrigins []string
	// Production switches the request log to the combined format.
	Production bool
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(deps.Production))
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(corsOptions(deps.AllowedOrigins)))

	r.Get("/health", handler.NewHealthHandler().ServeHTTP)

	todos := handler.NewTodoHandler(deps.Todos)
	r.Get("/", todos.List)
	r.Get("/{id}", todos.Get)
	r.Post("/", todos.Create)
	r.Put("/", todos.Update)
	r.Delete("/", todos.Delete)

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}
}
