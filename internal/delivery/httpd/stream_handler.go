package httpd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mkovtun/study-tracker/internal/middleware"
	"github.com/mkovtun/study-tracker/internal/models"
)

const streamKeepAliveInterval = 30 * time.Second

// StreamTasks pushes task change events to the client over SSE. Students
// receive only their own events, admins receive everything.
func (h *Handler) StreamTasks(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	admin := middleware.RoleFromContext(r.Context()) == string(models.RoleAdmin)

	// The stream outlives the server write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to clear write deadline for stream")
	}

	events, unsubscribe := h.hub.Subscribe(userID.String(), admin)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to encode task event")
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
