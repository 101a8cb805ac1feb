package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// MigrateRiver applies River's schema migrations to the database behind pool.
func MigrateRiver(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("migrate river: %w", err)
	}

	for _, v := range res.Versions {
		slog.InfoContext(ctx, "river migration applied", "version", v.Version)
	}

	return nil
}

// RiverClientConfig configures the River client running ingestion workers.
type RiverClientConfig struct {
	MaxWorkers int
	Logger     *slog.Logger
}

// NewRiverClient creates a River client that works the ingestion queue with the given workers.
func NewRiverClient(pool *pgxpool.Pool, workers *river.Workers, cfg RiverClientConfig) (*river.Client[pgx.Tx], error) {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultLocalWorkers
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueIngestion: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:      workers,
		ErrorHandler: &ErrorHandler{Logger: cfg.Logger},
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}

	return client, nil
}
