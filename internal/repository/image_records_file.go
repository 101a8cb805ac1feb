package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/formbricks/gallery/internal/models"
)

// imageDocument is the on-disk shape of the JSON record store.
type imageDocument struct {
	Images []models.ImageRecord `json:"images"`
}

// ImageRecordsFileRepository stores all image records in one JSON document.
// Writers are serialized in-process; separate processes sharing the file may lose updates.
type ImageRecordsFileRepository struct {
	path string
	mu   sync.Mutex
}

// NewImageRecordsFileRepository creates a repository backed by the JSON file at path.
// The file is created lazily on first write.
func NewImageRecordsFileRepository(path string) *ImageRecordsFileRepository {
	return &ImageRecordsFileRepository{path: path}
}

// Path returns the backing file path.
func (r *ImageRecordsFileRepository) Path() string {
	return r.path
}

// Append adds a record at the end of the collection. A record whose id is already stored is
// rejected with ErrDuplicateID.
func (r *ImageRecordsFileRepository) Append(ctx context.Context, record models.ImageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.read(ctx)

	for i := range doc.Images {
		if doc.Images[i].ID == record.ID {
			return fmt.Errorf("append image record %s: %w", record.ID, ErrDuplicateID)
		}
	}

	doc.Images = append(doc.Images, record)

	return r.write(doc)
}

// LoadAll returns every record in insertion order. A missing, empty, or corrupt document
// yields an empty collection.
func (r *ImageRecordsFileRepository) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read(ctx).Images, nil
}

// Get returns the record with the given id.
func (r *ImageRecordsFileRepository) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	records, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}

	return nil, ErrRecordNotFound
}

// UpdateDescription overwrites the description of the record with the given id.
func (r *ImageRecordsFileRepository) UpdateDescription(ctx context.Context, id, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.read(ctx)

	for i := range doc.Images {
		if doc.Images[i].ID == id {
			doc.Images[i].Description = description

			return r.write(doc)
		}
	}

	return ErrRecordNotFound
}

func (r *ImageRecordsFileRepository) read(ctx context.Context) imageDocument {
	doc := imageDocument{Images: []models.ImageRecord{}}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(ctx, "record store unreadable, treating as empty", "path", r.path, "error", err)
		}

		return doc
	}

	if len(data) == 0 {
		return doc
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		slog.WarnContext(ctx, "record store corrupt, treating as empty", "path", r.path, "error", err)

		return imageDocument{Images: []models.ImageRecord{}}
	}

	if doc.Images == nil {
		doc.Images = []models.ImageRecord{}
	}

	return doc
}

func (r *ImageRecordsFileRepository) write(doc imageDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal image records: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create record store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("create temp record store: %w", err)
	}

	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write record store: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close record store: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace record store: %w", err)
	}

	return nil
}
