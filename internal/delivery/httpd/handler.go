package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/middleware"
	"github.com/mkovtun/study-tracker/internal/service"
	"github.com/mkovtun/study-tracker/internal/worker"
	"github.com/mkovtun/study-tracker/pkg/validation"
)

const requestTimeout = 60 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	authService   service.AuthService
	userService   service.UserService
	taskService   service.TaskService
	statsService  service.StatsService
	reportService service.ReportService
	hub           *worker.Hub
	db            Pinger
	logger        zerolog.Logger
}

func NewHandler(
	authService service.AuthService,
	userService service.UserService,
	taskService service.TaskService,
	statsService service.StatsService,
	reportService service.ReportService,
	hub *worker.Hub,
	db Pinger,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		authService:   authService,
		userService:   userService,
		taskService:   taskService,
		statsService:  statsService,
		reportService: reportService,
		hub:           hub,
		db:            db,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router, auth *middleware.Auth) {
	router.With(chimiddleware.Timeout(requestTimeout)).Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		// The live stream stays open until the client disconnects, so it
		// runs outside the request timeout stack.
		api.Group(func(stream chi.Router) {
			stream.Use(auth.Authenticate)
			stream.Get("/tasks/stream", h.StreamTasks)
		})

		api.Group(func(timed chi.Router) {
			timed.Use(chimiddleware.Timeout(requestTimeout))

			timed.Route("/auth", func(r chi.Router) {
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
				r.Post("/refresh", h.Refresh)
				r.With(auth.Authenticate).Post("/logout", h.Logout)
			})

			timed.Group(func(private chi.Router) {
				private.Use(auth.Authenticate)

				private.Route("/profile", func(r chi.Router) {
					r.Get("/", h.GetProfile)
					r.Put("/", h.UpdateProfile)
					r.Put("/photo", h.UploadPhoto)
					r.Get("/photo", h.DownloadPhoto)
				})

				private.Route("/tasks", func(r chi.Router) {
					r.Post("/", h.CreateTask)
					r.Get("/", h.GetTasks)
					r.Get("/buckets", h.GetTaskBuckets)
					r.Get("/{id}", h.GetTaskByID)
					r.Put("/{id}", h.UpdateTask)
					r.Put("/{id}/toggle", h.ToggleTask)
					r.Delete("/{id}", h.DeleteTask)
				})

				private.Post("/admin/bootstrap", h.BootstrapAdmin)

				private.Route("/admin", func(r chi.Router) {
					r.Use(auth.RequireAdmin)
					r.Get("/students", h.GetStudents)
					r.Post("/students", h.ProvisionAccount)
					r.Get("/tasks", h.GetAllTasks)
					r.Get("/stats", h.GetStats)
					r.Get("/stats/chart", h.GetStatsChart)
					r.Get("/notifications", h.GetNotifications)
					r.Get("/reports/students.csv", h.ExportStudentsCSV)
				})
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	health := "healthy"

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Health check failed")
			status = http.StatusServiceUnavailable
			health = "unhealthy"
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"status":    health,
		"service":   "study-tracker",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var verr *validation.Error

	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrNoPhoto):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrAdminExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrEmptyTitle),
		errors.Is(err, service.ErrPastDueDate),
		errors.Is(err, service.ErrBadDueDate),
		errors.Is(err, service.ErrPhotoTooBig),
		errors.Is(err, service.ErrInvalidPhoto):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// completedFilter maps the optional ?completed=true|false query parameter.
func completedFilter(r *http.Request) *bool {
	value := r.URL.Query().Get("completed")
	if value == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}

	return &parsed
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
