package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/mkovtun/study-tracker/internal/middleware"
	"github.com/mkovtun/study-tracker/internal/models"
	"github.com/mkovtun/study-tracker/internal/repository"
)

func (h *Handler) GetStudents(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)
	search := r.URL.Query().Get("search")

	sortBy := r.URL.Query().Get("sort")
	switch sortBy {
	case "", repository.SortByName, repository.SortByMostCompleted,
		repository.SortByMostOverdue, repository.SortByCompletionRate:
	default:
		writeError(w, http.StatusBadRequest, "Invalid sort parameter")
		return
	}

	students, total, err := h.userService.ListStudents(r.Context(), search, sortBy, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, models.StudentsResponse{
		Students: students,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

func (h *Handler) ProvisionAccount(w http.ResponseWriter, r *http.Request) {
	var req models.ProvisionAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.ProvisionAccount(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

// BootstrapAdmin promotes the caller to ADMIN while no admin account exists.
// Existing sessions are revoked because their tokens still claim STUDENT;
// the caller signs in again to pick up the new role.
func (h *Handler) BootstrapAdmin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.userService.BootstrapAdmin(r.Context(), userID.String())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if err := h.authService.RevokeAll(r.Context(), userID.String()); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, user)
}
