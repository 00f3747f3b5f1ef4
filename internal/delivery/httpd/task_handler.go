package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkovtun/study-tracker/internal/middleware"
	"github.com/mkovtun/study-tracker/internal/models"
)

const defaultCompletedBucketLimit = 10

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.Create(r.Context(), userID.String(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    task,
	})
}

func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	tasks, total, err := h.taskService.List(r.Context(), userID.String(), completedFilter(r), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"tasks": tasks,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *Handler) GetTaskBuckets(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	completedLimit := getIntQueryParam(r, "completed_limit", defaultCompletedBucketLimit)

	buckets, err := h.taskService.Buckets(r.Context(), userID.String(), completedLimit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, buckets)
}

func (h *Handler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	role := models.Role(middleware.RoleFromContext(r.Context()))

	task, err := h.taskService.GetByID(r.Context(), userID.String(), role, taskID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, task)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	role := models.Role(middleware.RoleFromContext(r.Context()))

	task, err := h.taskService.Update(r.Context(), userID.String(), role, taskID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, task)
}

func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	role := models.Role(middleware.RoleFromContext(r.Context()))

	task, err := h.taskService.Toggle(r.Context(), userID.String(), role, taskID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	role := models.Role(middleware.RoleFromContext(r.Context()))

	if err := h.taskService.Delete(r.Context(), userID.String(), role, taskID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "task deleted"})
}

// GetAllTasks is the admin view over every student's tasks.
func (h *Handler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)
	search := r.URL.Query().Get("search")

	tasks, total, err := h.taskService.ListAll(r.Context(), search, completedFilter(r), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, models.TasksResponse{
		Tasks: tasks,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id format")
		return "", false
	}
	return id, true
}
