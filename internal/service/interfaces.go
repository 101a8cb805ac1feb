// Package service implements the gallery's use cases: semantic search, image ingestion, and uploads.
package service

import (
	"context"
	"io"

	"github.com/formbricks/gallery/internal/models"
	"github.com/formbricks/gallery/internal/storage"
)

// ImageRecordsRepository is the record store contract. Implemented by the file, SQLite and
// PostgreSQL repositories.
type ImageRecordsRepository interface {
	Append(ctx context.Context, record models.ImageRecord) error
	LoadAll(ctx context.Context) ([]models.ImageRecord, error)
	Get(ctx context.Context, id string) (*models.ImageRecord, error)
	UpdateDescription(ctx context.Context, id, description string) error
}

// Embedder maps text to a vector; ok is false on any failure. Implemented by embeddings.Generator.
type Embedder interface {
	Embed(ctx context.Context, text string) (vector []float32, ok bool)
}

// Captioner describes an image in natural language. Implemented by ollama.Client and vision.Captioner.
type Captioner interface {
	Describe(ctx context.Context, image []byte) (string, error)
}

// ImageStore holds uploaded image bytes. Implemented by storage.LocalStore and storage.MinioStore.
type ImageStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (*storage.Object, error)
	Delete(ctx context.Context, name string) error
}
