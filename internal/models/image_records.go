package models

import "time"

// ProcessingDescription is the placeholder description returned before captioning completes.
const ProcessingDescription = "Processing..."

// ImageRecord is one persisted gallery image: metadata, generated caption and caption embedding.
// Embedding is nil when embedding generation failed; such records are listed but never searched.
type ImageRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Embedding   []float32 `json:"embedding"`
}

// HasEmbedding reports whether the record can take part in similarity search.
func (r *ImageRecord) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// WithoutEmbedding returns a copy of the record with the embedding stripped.
func (r ImageRecord) WithoutEmbedding() ImageRecord {
	r.Embedding = nil

	return r
}

// ImageRecordWithScore is a search hit: the record (embedding stripped) and its cosine similarity to the query.
type ImageRecordWithScore struct {
	ImageRecord

	Similarity float64
}

// ImageResponse is the API representation of an image record. The embedding is never exposed.
type ImageResponse struct {
	ID          string   `json:"id"`
	Filename    string   `json:"filename"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	UploadedAt  string   `json:"uploaded_at"`
	Similarity  *float64 `json:"similarity,omitempty"`
}

// NewImageResponse converts a record to its API representation.
func NewImageResponse(r ImageRecord) ImageResponse {
	return ImageResponse{
		ID:          r.ID,
		Filename:    r.Filename,
		Path:        r.Path,
		Description: r.Description,
		UploadedAt:  r.UploadedAt.Format(time.RFC3339Nano),
	}
}

// NewScoredImageResponse converts a search hit to its API representation.
func NewScoredImageResponse(r ImageRecordWithScore) ImageResponse {
	resp := NewImageResponse(r.ImageRecord)
	similarity := r.Similarity
	resp.Similarity = &similarity

	return resp
}

// SearchRequest is the body of POST /api/search and the query string of GET /api/search.
// TopK is optional; zero means the configured default.
type SearchRequest struct {
	Query string `json:"query" form:"query" validate:"required,max=2000,no_null_bytes"`
	TopK  int    `json:"top_k" form:"top_k" validate:"omitempty,min=1,max=100"`
}
