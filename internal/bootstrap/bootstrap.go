// Package bootstrap builds the configured stores and model providers shared by the gallery binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/formbricks/gallery/internal/config"
	"github.com/formbricks/gallery/internal/embeddings"
	"github.com/formbricks/gallery/internal/googleai"
	"github.com/formbricks/gallery/internal/ollama"
	"github.com/formbricks/gallery/internal/openai"
	"github.com/formbricks/gallery/internal/repository"
	"github.com/formbricks/gallery/internal/service"
	"github.com/formbricks/gallery/internal/storage"
	"github.com/formbricks/gallery/internal/vision"
	"github.com/formbricks/gallery/pkg/database"
)

var errUnsupportedProvider = errors.New("unsupported provider")

// RecordStore is the opened record store. Pool is set only for the postgres backend.
type RecordStore struct {
	Repo service.ImageRecordsRepository
	Pool *pgxpool.Pool

	sqlDB *sql.DB
}

// Close releases the store's connections.
func (s *RecordStore) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}

	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			slog.Warn("close sqlite database", "error", err)
		}
	}
}

// OpenRecordStore opens the backend named by cfg.RecordStore and applies its schema.
func OpenRecordStore(ctx context.Context, cfg *config.Config) (*RecordStore, error) {
	switch cfg.RecordStore {
	case config.RecordStoreFile:
		if err := os.MkdirAll(filepath.Dir(cfg.RecordsFile), 0o750); err != nil {
			return nil, fmt.Errorf("create records directory: %w", err)
		}

		return &RecordStore{Repo: repository.NewImageRecordsFileRepository(cfg.RecordsFile)}, nil

	case config.RecordStoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}

		db, err := database.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		repo := repository.NewImageRecordsSQLiteRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("sqlite schema: %w", err)
		}

		return &RecordStore{Repo: repo, sqlDB: db}, nil

	case config.RecordStorePostgres:
		if err := repository.MigratePostgres(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}

		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}

		return &RecordStore{Repo: repository.NewImageRecordsPostgresRepository(pool), Pool: pool}, nil

	default:
		return nil, fmt.Errorf("%w: record store %q", errUnsupportedProvider, cfg.RecordStore)
	}
}

// OpenBlobStore opens the upload store named by cfg.BlobStore.
func OpenBlobStore(ctx context.Context, cfg *config.Config) (service.ImageStore, error) {
	switch cfg.BlobStore {
	case config.BlobStoreLocal:
		store, err := storage.NewLocalStore(cfg.UploadsDir)
		if err != nil {
			return nil, fmt.Errorf("open uploads directory: %w", err)
		}

		return store, nil

	case config.BlobStoreMinio:
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Prefix:    cfg.MinioPrefix,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("open minio bucket: %w", err)
		}

		return store, nil

	default:
		return nil, fmt.Errorf("%w: blob store %q", errUnsupportedProvider, cfg.BlobStore)
	}
}

// NewEmbeddingClient creates the embedding backend named by cfg.EmbeddingProvider.
func NewEmbeddingClient(ctx context.Context, cfg *config.Config) (embeddings.Client, error) {
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOllama:
		baseURL := cfg.EmbeddingBaseURL
		if baseURL == "" {
			baseURL = cfg.OllamaBaseURL
		}

		return ollama.NewClientWithOptions(ollama.ClientOptions{
			BaseURL:        baseURL,
			EmbeddingModel: cfg.EmbeddingModel,
		}), nil

	case config.EmbeddingProviderOpenAI:
		opts := []openai.ClientOption{
			openai.WithModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		}
		if cfg.EmbeddingBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.EmbeddingBaseURL))
		}

		return openai.NewClient(cfg.EmbeddingAPIKey, opts...), nil

	case config.EmbeddingProviderGoogleAI:
		opts := []googleai.ClientOption{googleai.WithModel(cfg.EmbeddingModel)}
		if cfg.EmbeddingDimensions > 0 {
			opts = append(opts, googleai.WithDimensions(cfg.EmbeddingDimensions))
		}

		client, err := googleai.NewClient(ctx, cfg.EmbeddingAPIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("create google embedding client: %w", err)
		}

		return client, nil

	case config.EmbeddingProviderMock:
		if cfg.EmbeddingDimensions > 0 {
			return embeddings.NewMockClientWithDimensions(cfg.EmbeddingDimensions), nil
		}

		return embeddings.NewMockClient(), nil

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", errUnsupportedProvider, cfg.EmbeddingProvider)
	}
}

// NewEmbeddingGenerator creates the embedding client and probes it. A generator is always
// returned; when the probe fails it is unavailable and every Embed reports failure.
func NewEmbeddingGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*embeddings.Generator, error) {
	client, err := NewEmbeddingClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.EmbeddingModel
	if model == "" {
		model = cfg.EmbeddingProvider
	}

	gen, err := embeddings.NewGenerator(ctx, client,
		embeddings.WithModel(model),
		embeddings.WithDimensions(cfg.EmbeddingDimensions),
		embeddings.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("embedding model unavailable, search will return no results", "provider", cfg.EmbeddingProvider, "error", err)
	}

	return gen, nil
}

// NewCaptioner creates the captioner named by cfg.CaptionProvider.
func NewCaptioner(cfg *config.Config) (service.Captioner, error) {
	switch cfg.CaptionProvider {
	case config.CaptionProviderOllama:
		baseURL := cfg.CaptionBaseURL
		if baseURL == "" {
			baseURL = cfg.OllamaBaseURL
		}

		return ollama.NewClientWithOptions(ollama.ClientOptions{
			BaseURL:      baseURL,
			CaptionModel: cfg.CaptionModel,
			Prompt:       cfg.CaptionPrompt,
			Timeout:      cfg.CaptionTimeout,
		}), nil

	case config.CaptionProviderOpenAI:
		var opts []vision.Option
		if cfg.CaptionModel != "" {
			opts = append(opts, vision.WithModel(cfg.CaptionModel))
		}

		if cfg.CaptionPrompt != "" {
			opts = append(opts, vision.WithPrompt(cfg.CaptionPrompt))
		}

		return vision.NewCaptioner(cfg.CaptionAPIKey, cfg.CaptionBaseURL, opts...), nil

	default:
		return nil, fmt.Errorf("%w: caption provider %q", errUnsupportedProvider, cfg.CaptionProvider)
	}
}
