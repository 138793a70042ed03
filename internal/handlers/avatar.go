package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ripple-social/apiserver/internal/services"
	"github.com/ripple-social/apiserver/internal/store"
)

const (
	maxAvatarMemory = 8 << 20
	maxAvatarBytes  = 4 << 20
	formFieldAvatar = "avatar"
)

// UploadAvatar replaces the session user's avatar from a multipart form.
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	data, contentType, err := readAvatarFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.userService.UpdateAvatar(r.Context(), user.ID, data, contentType)
	if err != nil {
		if errors.Is(err, services.ErrAvatarsDisabled) {
			writeError(w, http.StatusNotFound, "avatars are not enabled")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: updated, Message: "avatar updated"})
}

// DownloadAvatar streams a user's avatar. Public, like the feed.
func (h *AuthHandler) DownloadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	reader, err := h.userService.OpenAvatar(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, services.ErrNoAvatar), errors.Is(err, services.ErrAvatarsDisabled):
			writeError(w, http.StatusNotFound, "avatar not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to fetch avatar")
		}
		return
	}
	defer reader.Close()

	// Content-Type is sniffed from the first bytes on write.
	_, _ = io.Copy(w, reader)
}

func readAvatarFile(form *multipart.Form) ([]byte, string, error) {
	if form == nil {
		return nil, "", errors.New("missing form data")
	}

	files := form.File[formFieldAvatar]
	if len(files) == 0 {
		return nil, "", errors.New("avatar file is required")
	}
	if len(files) > 1 {
		return nil, "", errors.New("only one avatar file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", errors.New("failed to read avatar file")
	}
	defer file.Close()

	limited := io.LimitReader(file, maxAvatarBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", errors.New("failed to read avatar file")
	}
	if int64(len(data)) > maxAvatarBytes {
		return nil, "", errors.New("avatar file too large")
	}

	return data, fileHeader.Header.Get("Content-Type"), nil
}
