package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"botagent/internal/domain"
)

// BlobDownload streams one stored media file. The content type follows the
// key's prefix, not its extension, so renamed keys still download correctly.
func (a *App) BlobDownload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "blob key required")
		return
	}
	data, err := a.Blobs.Read(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "blob not found")
			return
		}
		a.Logger.Error().Err(err).Str("key", key).Msg("handlers: blob read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read blob")
		return
	}
	w.Header().Set("Content-Type", blobContentType(key))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func blobContentType(key string) string {
	switch {
	case strings.HasPrefix(key, domain.AudioBlobPrefix):
		return "audio/wav"
	case strings.HasPrefix(key, domain.ImageBlobPrefix):
		return "image/png"
	case strings.HasPrefix(key, domain.VideoBlobPrefix):
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
