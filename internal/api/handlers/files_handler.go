package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formbricks/gallery/internal/api/response"
	"github.com/formbricks/gallery/internal/storage"
)

// ImageOpener opens stored images by name.
type ImageOpener interface {
	Open(ctx context.Context, name string) (*storage.Object, error)
}

// FilesHandler serves stored image bytes.
type FilesHandler struct {
	store ImageOpener
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(store ImageOpener) *FilesHandler {
	return &FilesHandler{store: store}
}

// Serve handles GET /images/{filename}. Range and conditional requests are supported.
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	obj, err := h.store.Open(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
			response.RespondNotFound(w, "Image not found")
		default:
			slog.ErrorContext(r.Context(), "Open stored image failed", "name", name, "error", err)
			response.RespondInternalServerError(w, "An unexpected error occurred")
		}

		return
	}

	defer func() {
		if err := obj.Close(); err != nil {
			slog.WarnContext(r.Context(), "Failed to close stored image", "name", name, "error", err)
		}
	}()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}

	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	http.ServeContent(w, r, name, obj.ModTime, obj)
}
