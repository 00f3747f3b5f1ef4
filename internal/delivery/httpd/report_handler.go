package httpd

import (
	"fmt"
	"net/http"

	"github.com/mkovtun/study-tracker/internal/service"
)

func (h *Handler) ExportStudentsCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", service.StudentsCSVFilename))

	if err := h.reportService.WriteStudentsCSV(r.Context(), w); err != nil {
		// Headers may already be out, so only log.
		h.logger.Error().Err(err).Msg("failed to write students CSV")
	}
}
