package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/formbricks/gallery/internal/apperrors"
	"github.com/formbricks/gallery/internal/jobs"
	"github.com/formbricks/gallery/internal/models"
	"github.com/formbricks/gallery/internal/observability"
	"github.com/formbricks/gallery/internal/repository"
	"github.com/formbricks/gallery/internal/storage"
)

// ImagesPathPrefix is the URL prefix stored images are served under.
const ImagesPathPrefix = "/images/"

// ImagePath returns the public path of a stored image.
func ImagePath(filename string) string {
	return ImagesPathPrefix + filename
}

// ImagesService accepts uploads and lists stored records.
type ImagesService struct {
	store     ImageStore
	repo      ImageRecordsRepository
	inserter  jobs.IngestionInserter
	queueName string
	metrics   observability.IngestionMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// ImagesServiceParams configures ImagesService. QueueName labels enqueue metrics.
type ImagesServiceParams struct {
	Store     ImageStore
	Repo      ImageRecordsRepository
	Inserter  jobs.IngestionInserter
	QueueName string
	Metrics   observability.IngestionMetrics
	Logger    *slog.Logger
}

// NewImagesService creates an ImagesService.
func NewImagesService(p ImagesServiceParams) *ImagesService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ImagesService{
		store:     p.Store,
		repo:      p.Repo,
		inserter:  p.Inserter,
		queueName: p.QueueName,
		metrics:   p.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload stores the image bytes and schedules ingestion. The returned placeholder carries
// models.ProcessingDescription; the real record appears once ingestion finishes.
func (s *ImagesService) Upload(
	ctx context.Context, originalName string, r io.Reader, size int64, contentType string,
) (models.ImageRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return models.ImageRecord{}, fmt.Errorf("generate image id: %w", err)
	}

	imageID := id.String()
	filename := imageID + "_" + storage.SanitizeFilename(originalName)

	if err := s.store.Put(ctx, filename, r, size, contentType); err != nil {
		return models.ImageRecord{}, fmt.Errorf("store image: %w", err)
	}

	uploadedAt := s.now().UTC()
	args := jobs.IngestionArgs{ImageID: imageID, Filename: filename, UploadedAt: uploadedAt}

	if err := s.inserter.Enqueue(ctx, args); err != nil {
		s.recordEnqueueError(ctx, err)
		s.logger.ErrorContext(ctx, "failed to enqueue ingestion", "image_id", imageID, "error", err)

		if delErr := s.store.Delete(ctx, filename); delErr != nil {
			s.recordEnqueueErrorReason(ctx, "store_rollback")
			s.logger.WarnContext(ctx, "failed to remove image after enqueue failure",
				"filename", filename, "error", delErr)
		}

		if errors.Is(err, jobs.ErrQueueFull) || errors.Is(err, jobs.ErrQueueStopped) {
			return models.ImageRecord{}, apperrors.NewUnavailableError("ingestion queue is busy, retry later", err)
		}

		return models.ImageRecord{}, fmt.Errorf("enqueue ingestion: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordJobEnqueued(ctx, s.queueName)
	}

	return models.ImageRecord{
		ID:          imageID,
		Filename:    filename,
		Path:        ImagePath(filename),
		Description: models.ProcessingDescription,
		UploadedAt:  uploadedAt,
	}, nil
}

// List returns every record without embeddings, in insertion order. A store failure yields an
// empty list.
func (s *ImagesService) List(ctx context.Context) []models.ImageRecord {
	records, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list images: load records failed", "error", err)

		return []models.ImageRecord{}
	}

	out := make([]models.ImageRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record.WithoutEmbedding())
	}

	return out
}

// Get returns one record without its embedding.
func (s *ImagesService) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("image", "image not found")
		}

		return nil, fmt.Errorf("get image %s: %w", id, err)
	}

	stripped := record.WithoutEmbedding()

	return &stripped, nil
}

func (s *ImagesService) recordEnqueueError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrQueueFull):
		s.recordEnqueueErrorReason(ctx, "queue_full")
	case errors.Is(err, jobs.ErrQueueStopped):
		s.recordEnqueueErrorReason(ctx, "queue_stopped")
	default:
		s.recordEnqueueErrorReason(ctx, "insert_failed")
	}
}

func (s *ImagesService) recordEnqueueErrorReason(ctx context.Context, reason string) {
	if s.metrics != nil {
		s.metrics.RecordEnqueueError(ctx, reason)
	}
}
