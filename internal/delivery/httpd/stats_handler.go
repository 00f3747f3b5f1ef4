package httpd

import (
	"net/http"

	"github.com/mkovtun/study-tracker/internal/models"
)

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Overview(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, stats)
}

func (h *Handler) GetStatsChart(w http.ResponseWriter, r *http.Request) {
	chartRange := models.ChartRange(r.URL.Query().Get("range"))
	if chartRange == "" {
		chartRange = models.ChartRangeWeek
	}

	if chartRange != models.ChartRangeWeek && chartRange != models.ChartRangeMonth {
		writeError(w, http.StatusBadRequest, "range must be week or month")
		return
	}

	series, err := h.statsService.Chart(r.Context(), chartRange)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, series)
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.statsService.Notifications(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
	})
}
