package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/formbricks/gallery/internal/imaging"
	"github.com/formbricks/gallery/internal/jobs"
	"github.com/formbricks/gallery/internal/models"
	"github.com/formbricks/gallery/internal/observability"
	"github.com/formbricks/gallery/internal/repository"
	"github.com/formbricks/gallery/internal/storage"
)

// CaptionFailedDescription is stored when the captioner cannot describe an image.
const CaptionFailedDescription = "Failed to generate description. Please try another image format like JPEG or PNG."

// errorDescriptionPrefix prefixes the description of records whose ingestion failed.
const errorDescriptionPrefix = "Error processing image: "

// ImageReader opens stored image bytes by object name.
type ImageReader interface {
	Open(ctx context.Context, name string) (*storage.Object, error)
}

// IngestionService captions, embeds and persists uploaded images. It implements jobs.Processor.
type IngestionService struct {
	captioner    Captioner
	images       ImageReader
	embedder     Embedder
	repo         ImageRecordsRepository
	limiter      *rate.Limiter
	maxDimension int
	metrics      observability.IngestionMetrics
	logger       *slog.Logger
}

// IngestionServiceParams configures IngestionService. Limiter and Metrics may be nil.
// MaxDimension <= 0 uses imaging.DefaultMaxDimension.
type IngestionServiceParams struct {
	Captioner    Captioner
	Images       ImageReader
	Embedder     Embedder
	Repo         ImageRecordsRepository
	Limiter      *rate.Limiter
	MaxDimension int
	Metrics      observability.IngestionMetrics
	Logger       *slog.Logger
}

// NewIngestionService creates an IngestionService.
func NewIngestionService(p IngestionServiceParams) *IngestionService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxDim := p.MaxDimension
	if maxDim <= 0 {
		maxDim = imaging.DefaultMaxDimension
	}

	return &IngestionService{
		captioner:    p.Captioner,
		images:       p.Images,
		embedder:     p.Embedder,
		repo:         p.Repo,
		limiter:      p.Limiter,
		maxDimension: maxDim,
		metrics:      p.Metrics,
		logger:       logger,
	}
}

// Process runs the full pipeline for one uploaded image. Failures are recorded on the image's
// record rather than returned; an error is returned only if that annotation also fails.
func (s *IngestionService) Process(ctx context.Context, args jobs.IngestionArgs) (err error) {
	ctx, span := observability.Tracer().Start(ctx, "IngestionService.Process")
	defer span.End()

	span.SetAttributes(attribute.String("image.id", args.ImageID))

	start := time.Now()
	outcome := observability.OutcomeFailed

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "ingestion panicked", "image_id", args.ImageID, "panic", r)
			outcome = observability.OutcomeFailed
			err = s.annotateFailure(ctx, args, fmt.Errorf("panic: %v", r))
		}

		if s.metrics != nil {
			s.metrics.RecordOutcome(ctx, outcome, time.Since(start))
		}
	}()

	outcome, procErr := s.process(ctx, args)
	if procErr == nil {
		return nil
	}

	span.RecordError(procErr)
	span.SetStatus(codes.Error, procErr.Error())
	s.logger.ErrorContext(ctx, "ingestion failed", "image_id", args.ImageID, "error", procErr)

	return s.annotateFailure(ctx, args, procErr)
}

func (s *IngestionService) process(ctx context.Context, args jobs.IngestionArgs) (string, error) {
	data, err := s.readImage(ctx, args.Filename)
	if err != nil {
		return observability.OutcomeFailed, err
	}

	outcome := observability.OutcomeSuccess
	description := s.caption(ctx, args, data)

	if description == CaptionFailedDescription {
		outcome = observability.OutcomeCaptionFailed
	}

	embedding, ok := s.embedder.Embed(ctx, description)
	if !ok {
		s.logger.WarnContext(ctx, "embedding failed, storing record without embedding", "image_id", args.ImageID)

		embedding = nil
		if outcome == observability.OutcomeSuccess {
			outcome = observability.OutcomeNoEmbedding
		}
	}

	record := models.ImageRecord{
		ID:          args.ImageID,
		Filename:    args.Filename,
		Path:        ImagePath(args.Filename),
		Description: description,
		UploadedAt:  args.UploadedAt,
		Embedding:   embedding,
	}

	if err := s.repo.Append(ctx, record); err != nil {
		// a redelivered job whose earlier append committed
		if errors.Is(err, repository.ErrDuplicateID) {
			s.logger.InfoContext(ctx, "image already ingested", "image_id", args.ImageID)

			return observability.OutcomeDuplicate, nil
		}

		return observability.OutcomeFailed, fmt.Errorf("append record: %w", err)
	}

	s.logger.InfoContext(ctx, "image ingested", "image_id", args.ImageID, "outcome", outcome)

	return outcome, nil
}

func (s *IngestionService) readImage(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.images.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", name, err)
	}

	defer func() {
		if closeErr := obj.Close(); closeErr != nil {
			s.logger.WarnContext(ctx, "failed to close image", "name", name, "error", closeErr)
		}
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read image %q: %w", name, err)
	}

	return data, nil
}

// caption returns the generated description, or CaptionFailedDescription.
func (s *IngestionService) caption(ctx context.Context, args jobs.IngestionArgs, data []byte) string {
	normalized, err := imaging.Normalize(data, s.maxDimension)
	if err != nil {
		s.logger.WarnContext(ctx, "image normalization failed, captioning original bytes",
			"image_id", args.ImageID, "error", err)

		normalized = data
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.WarnContext(ctx, "caption rate limit wait aborted", "image_id", args.ImageID, "error", err)

			return CaptionFailedDescription
		}
	}

	description, err := s.captioner.Describe(ctx, normalized)
	if err != nil || description == "" {
		s.logger.WarnContext(ctx, "captioning failed", "image_id", args.ImageID, "error", err)

		return CaptionFailedDescription
	}

	return description
}

// annotateFailure records cause on the image's record, appending an embedding-less record
// when none exists yet.
func (s *IngestionService) annotateFailure(ctx context.Context, args jobs.IngestionArgs, cause error) error {
	description := errorDescriptionPrefix + cause.Error()

	err := s.repo.UpdateDescription(ctx, args.ImageID, description)
	if err == nil {
		return nil
	}

	if !errors.Is(err, repository.ErrRecordNotFound) {
		return fmt.Errorf("annotate failed ingestion of %s: %w", args.ImageID, err)
	}

	record := models.ImageRecord{
		ID:          args.ImageID,
		Filename:    args.Filename,
		Path:        ImagePath(args.Filename),
		Description: description,
		UploadedAt:  args.UploadedAt,
	}

	if err := s.repo.Append(ctx, record); err != nil {
		return fmt.Errorf("record failed ingestion of %s: %w", args.ImageID, err)
	}

	return nil
}
