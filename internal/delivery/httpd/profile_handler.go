package httpd

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mkovtun/study-tracker/internal/middleware"
	"github.com/mkovtun/study-tracker/internal/models"
)

const maxPhotoFormMemory = 8 << 20 // 8MB

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.userService.GetProfile(r.Context(), userID.String())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID.String(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, user)
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxPhotoFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Photo file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	key, err := h.userService.UploadPhoto(r.Context(), userID.String(), file, header.Size, contentType)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"photo_key": key})
}

func (h *Handler) DownloadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	photo, contentType, err := h.userService.DownloadPhoto(r.Context(), userID.String())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	defer photo.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, photo); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to stream photo")
	}
}
