package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/formbricks/gallery/internal/observability"
)

const (
	defaultLocalWorkers   = 2
	defaultLocalQueueSize = 100
)

// LocalQueueOptions configures LocalQueue. Zero values use defaults.
type LocalQueueOptions struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
	Metrics    observability.IngestionMetrics
	Logger     *slog.Logger
}

// LocalQueue is a bounded in-process ingestion queue drained by a fixed worker pool.
// Jobs are lost on process exit; River is the durable alternative.
type LocalQueue struct {
	processor  Processor
	jobs       chan IngestionArgs
	workers    int
	jobTimeout time.Duration
	metrics    observability.IngestionMetrics
	logger     *slog.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewLocalQueue creates a queue; call Start before jobs are processed.
func NewLocalQueue(processor Processor, opts LocalQueueOptions) *LocalQueue {
	if opts.Workers <= 0 {
		opts.Workers = defaultLocalWorkers
	}

	if opts.Size <= 0 {
		opts.Size = defaultLocalQueueSize
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &LocalQueue{
		processor:  processor,
		jobs:       make(chan IngestionArgs, opts.Size),
		workers:    opts.Workers,
		jobTimeout: opts.JobTimeout,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
}

// Start launches the workers. Jobs run under a context derived from ctx, not the enqueuing request.
func (q *LocalQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.stopped {
		return
	}

	q.started = true

	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	q.cancel = cancel

	for i := range q.workers {
		q.wg.Go(func() {
			q.run(workCtx, i)
		})
	}

	q.logger.Info("ingestion queue started", "workers", q.workers, "capacity", cap(q.jobs))
}

// Enqueue adds a job without blocking. Returns ErrQueueFull at capacity and ErrQueueStopped after Stop.
func (q *LocalQueue) Enqueue(_ context.Context, args IngestionArgs) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return ErrQueueStopped
	}

	select {
	case q.jobs <- args:
		if q.metrics != nil {
			q.metrics.SetQueueDepth(len(q.jobs))
		}

		return nil
	default:
		return ErrQueueFull
	}
}

// Len returns the number of jobs waiting.
func (q *LocalQueue) Len() int {
	return len(q.jobs)
}

// Stop rejects new jobs and waits for queued and in-flight jobs to finish. When ctx expires
// first, running jobs are cancelled and ctx's error is returned.
func (q *LocalQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()

		return nil
	}

	q.stopped = true
	close(q.jobs)
	cancel := q.cancel
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if cancel != nil {
			cancel()
		}

		return nil
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}

		<-done

		return fmt.Errorf("ingestion queue drain: %w", ctx.Err())
	}
}

func (q *LocalQueue) run(ctx context.Context, worker int) {
	for args := range q.jobs {
		if q.metrics != nil {
			q.metrics.SetQueueDepth(len(q.jobs))
		}

		q.runOne(ctx, worker, args)
	}
}

// runOne is the per-job recover boundary: a panicking job never takes down the worker.
func (q *LocalQueue) runOne(ctx context.Context, worker int, args IngestionArgs) {
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.jobTimeout)

		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.ErrorContext(ctx, "ingestion job panicked",
				"worker", worker,
				"image_id", args.ImageID,
				"panic_value", r,
				"stack_trace", string(debug.Stack()),
			)
		}
	}()

	if err := q.processor.Process(ctx, args); err != nil {
		q.logger.ErrorContext(ctx, "ingestion job failed",
			"worker", worker,
			"image_id", args.ImageID,
			"error", err,
		)
	}
}
