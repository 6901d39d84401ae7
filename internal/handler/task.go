package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/taskdeck/internal/auth"
	"github.com/dukerupert/taskdeck/internal/model"
	"github.com/dukerupert/taskdeck/internal/store"
	"github.com/dukerupert/taskdeck/internal/websocket"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type TaskHandler struct {
	tasks  *store.TaskStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(tasks *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, hub: hub, logger: logger}
}

func (h *TaskHandler) notify(ownerID, action, taskID string) {
	if h.hub != nil {
		h.hub.Notify(ownerID, websocket.NewMessage("task", action, taskID))
	}
}

type taskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Deadline    *string `json:"deadline"`
	Completed   *bool   `json:"completed"`
}

// validate enforces the task field rules. Category is required only on
// create; on update an absent field keeps its stored value.
func (req *taskRequest) validate(requireCategory bool) ([]fieldError, *time.Time) {
	var errs []fieldError
	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, fieldError{"title", "Title is required"})
	}
	if requireCategory && (req.Category == nil || strings.TrimSpace(*req.Category) == "") {
		errs = append(errs, fieldError{"category", "Category is required"})
	} else if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		errs = append(errs, fieldError{"category", "Category must not be empty"})
	}

	var deadline *time.Time
	if req.Deadline != nil && *req.Deadline != "" {
		dl, ok := parseDeadline(*req.Deadline)
		if !ok {
			errs = append(errs, fieldError{"deadline", "Invalid date"})
		}
		deadline = dl
	}
	return errs, deadline
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = trimmed(req.Category)

	errs, deadline := req.validate(true)
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	var description string
	if req.Description != nil {
		description = *req.Description
	}

	owner := auth.UserID(r.Context())
	task, err := h.tasks.Create(owner, req.Title, description, *req.Category, deadline)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.notify(owner, "created", task.ID)
	writeJSON(w, http.StatusCreated, task)
}

// listResponse pages the owner's tasks, newest first.
type listResponse struct {
	Tasks       []model.Task `json:"tasks"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)

	owner := auth.UserID(r.Context())
	tasks, total, err := h.tasks.ListByOwner(owner, page, limit)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Tasks:       tasks,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := auth.UserID(r.Context())
	task, err := h.tasks.GetByID(owner, r.PathValue("id"))
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = trimmed(req.Category)

	errs, deadline := req.validate(false)
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	owner := auth.UserID(r.Context())
	task, err := h.tasks.Update(owner, r.PathValue("id"), req.Title, req.Description, req.Category, deadline, req.Completed)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	h.notify(owner, "updated", task.ID)
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	owner := auth.UserID(r.Context())
	task, err := h.tasks.MarkCompleted(owner, r.PathValue("id"))
	if err != nil {
		h.logger.Error("complete task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	h.notify(owner, "completed", task.ID)
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := auth.UserID(r.Context())
	id := r.PathValue("id")

	deleted, err := h.tasks.Delete(owner, id)
	if err != nil {
		h.logger.Error("delete task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	h.notify(owner, "deleted", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// queryInt reads a positive integer query parameter, falling back to
// def when absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
