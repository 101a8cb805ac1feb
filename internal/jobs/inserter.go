package jobs

import (
	"context"
	"errors"
)

var (
	// ErrQueueFull is returned by LocalQueue.Enqueue when the buffer is at capacity.
	ErrQueueFull = errors.New("ingestion queue is full")
	// ErrQueueStopped is returned by LocalQueue.Enqueue after Stop.
	ErrQueueStopped = errors.New("ingestion queue is stopped")
)

// IngestionInserter enqueues ingestion jobs without callers knowing which queue backs them.
type IngestionInserter interface {
	Enqueue(ctx context.Context, args IngestionArgs) error
}

// Processor runs one ingestion job. Implemented by service.IngestionService.
type Processor interface {
	Process(ctx context.Context, args IngestionArgs) error
}
