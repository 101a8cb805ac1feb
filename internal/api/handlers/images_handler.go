package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/formbricks/gallery/internal/api/response"
	"github.com/formbricks/gallery/internal/apperrors"
	"github.com/formbricks/gallery/internal/models"
)

// uploadFormField is the multipart field carrying the image.
const uploadFormField = "file"

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// ImagesService defines the interface for uploads and image listing.
type ImagesService interface {
	Upload(ctx context.Context, originalName string, r io.Reader, size int64, contentType string) (models.ImageRecord, error)
	List(ctx context.Context) []models.ImageRecord
	Get(ctx context.Context, id string) (*models.ImageRecord, error)
}

// ImagesHandler handles HTTP requests for gallery images.
type ImagesHandler struct {
	service ImagesService
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(service ImagesService) *ImagesHandler {
	return &ImagesHandler{service: service}
}

// Upload handles POST /api/upload. The image is captioned in the background; the response is a
// placeholder whose description is "Processing...".
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.RespondRequestEntityTooLarge(w, "request body exceeds maximum allowed size")

			return
		}

		response.RespondBadRequest(w, "Expected a multipart/form-data body")

		return
	}

	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.WarnContext(r.Context(), "Failed to remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		response.RespondBadRequest(w, "file is required")

		return
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.WarnContext(r.Context(), "Failed to close uploaded file", "error", err)
		}
	}()

	record, err := h.service.Upload(r.Context(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, apperrors.ErrUnavailable) {
			w.Header().Set("Retry-After", "5")
			response.RespondServiceUnavailable(w, err.Error())

			return
		}

		slog.ErrorContext(r.Context(), "Upload failed", "error", err)
		response.RespondInternalServerError(w, "An unexpected error occurred")

		return
	}

	response.RespondJSON(w, http.StatusOK, models.NewImageResponse(record))
}

// List handles GET /api/images.
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.service.List(r.Context())

	out := make([]models.ImageResponse, 0, len(records))
	for _, record := range records {
		out = append(out, models.NewImageResponse(record))
	}

	response.RespondJSON(w, http.StatusOK, out)
}

// Get handles GET /api/images/{id}.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Image ID is required")

		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Image not found")

			return
		}

		slog.ErrorContext(r.Context(), "Get image failed", "id", id, "error", err)
		response.RespondInternalServerError(w, "An unexpected error occurred")

		return
	}

	response.RespondJSON(w, http.StatusOK, models.NewImageResponse(*record))
}
