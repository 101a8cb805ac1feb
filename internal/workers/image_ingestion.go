// Package workers provides River job workers.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/formbricks/gallery/internal/jobs"
)

const defaultIngestionTimeout = 5 * time.Minute

// ImageIngestionWorker runs the ingestion pipeline for River jobs.
type ImageIngestionWorker struct {
	river.WorkerDefaults[jobs.IngestionArgs]

	processor jobs.Processor
	timeout   time.Duration
}

// NewImageIngestionWorker creates a worker. timeout <= 0 uses five minutes.
func NewImageIngestionWorker(processor jobs.Processor, timeout time.Duration) *ImageIngestionWorker {
	if timeout <= 0 {
		timeout = defaultIngestionTimeout
	}

	return &ImageIngestionWorker{processor: processor, timeout: timeout}
}

// Timeout limits how long a single ingestion job can run.
func (w *ImageIngestionWorker) Timeout(*river.Job[jobs.IngestionArgs]) time.Duration {
	return w.timeout
}

// Work processes one image. Errors only surface when even the failure annotation could not be
// persisted, so River's retry gives the store another chance.
func (w *ImageIngestionWorker) Work(ctx context.Context, job *river.Job[jobs.IngestionArgs]) error {
	if err := w.processor.Process(ctx, job.Args); err != nil {
		return fmt.Errorf("ingest image %s: %w", job.Args.ImageID, err)
	}

	return nil
}
