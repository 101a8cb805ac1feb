package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// RiverInserter implements IngestionInserter using the River client.
type RiverInserter struct {
	client      *river.Client[pgx.Tx]
	maxAttempts int
}

// NewRiverInserter creates a River-based inserter. maxAttempts <= 0 keeps River's default.
func NewRiverInserter(client *river.Client[pgx.Tx], maxAttempts int) *RiverInserter {
	return &RiverInserter{client: client, maxAttempts: maxAttempts}
}

// Enqueue inserts an ingestion job; duplicates for the same image are skipped by River.
func (r *RiverInserter) Enqueue(ctx context.Context, args IngestionArgs) error {
	opts := args.InsertOpts()
	if r.maxAttempts > 0 {
		opts.MaxAttempts = r.maxAttempts
	}

	if _, err := r.client.Insert(ctx, args, &opts); err != nil {
		return fmt.Errorf("insert ingestion job: %w", err)
	}

	return nil
}
