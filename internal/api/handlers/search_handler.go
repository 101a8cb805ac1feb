package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/formbricks/gallery/internal/api/response"
	"github.com/formbricks/gallery/internal/api/validation"
	"github.com/formbricks/gallery/internal/models"
)

// SearchService defines the interface for semantic image search.
type SearchService interface {
	Search(ctx context.Context, query string, topK int) []models.ImageRecordWithScore
}

// SearchHandler handles HTTP requests for semantic search.
type SearchHandler struct {
	service     SearchService
	defaultTopK int
}

// NewSearchHandler creates a new search handler. defaultTopK applies when the request has no top_k.
func NewSearchHandler(service SearchService, defaultTopK int) *SearchHandler {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}

	return &SearchHandler{service: service, defaultTopK: defaultTopK}
}

// Search handles POST /api/search with a JSON body {"query": "...", "top_k": 5}.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.RespondRequestEntityTooLarge(w, "request body exceeds maximum allowed size")

			return
		}

		if errors.Is(err, io.EOF) {
			response.RespondBadRequest(w, "query is required")

			return
		}

		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	h.respond(w, r, req)
}

// SearchQuery handles GET /api/search?query=...&top_k=5.
func (h *SearchHandler) SearchQuery(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest

	if err := validation.DecodeQueryParams(r, &req); err != nil {
		response.RespondBadRequest(w, "Invalid query parameters")

		return
	}

	h.respond(w, r, req)
}

func (h *SearchHandler) respond(w http.ResponseWriter, r *http.Request, req models.SearchRequest) {
	req.Query = strings.TrimSpace(req.Query)

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = h.defaultTopK
	}

	results := h.service.Search(r.Context(), req.Query, topK)

	out := make([]models.ImageResponse, 0, len(results))
	for _, result := range results {
		out = append(out, models.NewScoredImageResponse(result))
	}

	response.RespondJSON(w, http.StatusOK, out)
}
