package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/todolist/internal/api/middleware"
	"github.com/daap14/todolist/internal/api/response"
	"github.com/daap14/todolist/internal/database"
	"github.com/daap14/todolist/internal/todo"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidID   = errors.New("invalid todo id")
	errInvalidBody = errors.New("invalid request body")
	errMissingTodo = errors.New("todo is required")
	errMissingID   = errors.New("id is required")
)

// todoID accepts an id as a JSON number or a numeric string.
type todoID int64

func (id *todoID) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return errInvalidID
	}
	*id = todoID(n)
	return nil
}

type todoPayload struct {
	ID          *todoID `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (p *todoPayload) input() todo.Input {
	return todo.Input{Name: p.Name, Description: p.Description, Completed: p.Completed}
}

type todoRequest struct {
	Todo *todoPayload `json:"todo"`
}

type deleteRequest struct {
	ID *todoID `json:"id"`
}

type listResponse struct {
	Todos []todo.Todo `json:"todos"`
}

type getResponse struct {
	Todo *todo.Todo `json:"todo,omitempty"`
}

type mutationResponse struct {
	Msg  string     `json:"msg"`
	Todo *todo.Todo `json:"todo,omitempty"`
}

// TodoHandler handles the todo CRUD endpoints.
type TodoHandler struct {
	repo todo.Repository
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(repo todo.Repository) *TodoHandler {
	return &TodoHandler{repo: repo}
}

// List handles GET /.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.repo.List(r.Context())
	if err != nil {
		h.fail(w, r, "list todos", err)
		return
	}
	response.Success(w, listResponse{Todos: todos})
}

// Get handles GET /{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, "get todo", errInvalidID)
		return
	}

	t, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get todo", err)
		return
	}
	response.Success(w, getResponse{Todo: t})
}

// Create handles POST /.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, "create todo", err)
		return
	}
	if req.Todo == nil {
		h.fail(w, r, "create todo", errMissingTodo)
		return
	}

	created, err := h.repo.Create(r.Context(), req.Todo.input())
	if err != nil {
		h.fail(w, r, "create todo", err)
		return
	}
	response.Success(w, mutationResponse{Msg: "New todo created.", Todo: created})
}

// Update handles PUT /. Every field is replaced; a missing id yields no todo in the reply.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, "update todo", err)
		return
	}
	if req.Todo == nil {
		h.fail(w, r, "update todo", errMissingTodo)
		return
	}
	if req.Todo.ID == nil {
		h.fail(w, r, "update todo", errMissingID)
		return
	}

	updated, err := h.repo.Update(r.Context(), int64(*req.Todo.ID), req.Todo.input())
	if err != nil {
		h.fail(w, r, "update todo", err)
		return
	}
	response.Success(w, mutationResponse{Msg: "Updated todo.", Todo: updated})
}

// Delete handles DELETE /. Deleting an absent id still succeeds.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, "delete todo", err)
		return
	}
	if req.ID == nil {
		h.fail(w, r, "delete todo", errMissingID)
		return
	}

	if _, err := h.repo.Delete(r.Context(), int64(*req.ID)); err != nil {
		h.fail(w, r, "delete todo", err)
		return
	}
	response.Success(w, mutationResponse{Msg: "Todo deleted."})
}

// decode reads a JSON body. Decoder detail is kept for the log only.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, errInvalidID) {
			return errInvalidID
		}
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return nil
}

// fail logs err with its cause and replies 400 with clientMessage(err).
func (h *TodoHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.Error("failed to "+op, "error", err, "requestId", middleware.GetRequestID(r.Context()))
	response.Err(w, http.StatusBadRequest, clientMessage(err))
}

// clientMessage picks what a client may see. Database failures expose their kind only,
// and a query before the pool exists reads like any other failed query.
func clientMessage(err error) string {
	var dbErr *database.Error
	switch {
	case errors.Is(err, database.ErrNotInitialized):
		return database.ErrQueryFailed.Error()
	case errors.As(err, &dbErr):
		return dbErr.Error()
	case errors.Is(err, errInvalidBody):
		return errInvalidBody.Error()
	}
	return err.Error()
}
