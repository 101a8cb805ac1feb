package observability

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// IngestionMetrics records the caption -> embed -> append pipeline.
// Methods accept ctx for future exemplar support.
type IngestionMetrics interface {
	RecordJobEnqueued(ctx context.Context, queue string)
	RecordEnqueueError(ctx context.Context, reason string)
	RecordOutcome(ctx context.Context, outcome string, duration time.Duration)
	SetQueueDepth(depth int)
}

type ingestionMetrics struct {
	jobsEnqueued  metric.Int64Counter
	enqueueErrors metric.Int64Counter
	outcomes      metric.Int64Counter
	duration      metric.Float64Histogram
	queueDepth    atomic.Int64
}

// NewIngestionMetrics creates IngestionMetrics and registers the queue depth gauge.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewIngestionMetrics(meter metric.Meter) (IngestionMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	jobsEnqueued, err := meter.Int64Counter(
		MetricNameIngestionJobs,
		metric.WithDescription("Total ingestion jobs enqueued"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingestion jobs counter: %w", err)
	}

	enqueueErrors, err := meter.Int64Counter(
		MetricNameIngestionEnqueueErr,
		metric.WithDescription("Uploads whose ingestion job could not be enqueued"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingestion enqueue errors counter: %w", err)
	}

	outcomes, err := meter.Int64Counter(
		MetricNameIngestionOutcomes,
		metric.WithDescription("Ingestion outcomes: success, caption_failed, no_embedding, failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingestion outcomes counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameIngestionDuration,
		metric.WithDescription("Ingestion duration (seconds), captioning dominates"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingestion duration histogram: %w", err)
	}

	m := &ingestionMetrics{
		jobsEnqueued:  jobsEnqueued,
		enqueueErrors: enqueueErrors,
		outcomes:      outcomes,
		duration:      duration,
	}

	_, err = meter.Int64ObservableGauge(
		MetricNameIngestionQueueDepth,
		metric.WithDescription("Jobs waiting in the in-process ingestion queue"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.queueDepth.Load())

			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingestion queue depth gauge: %w", err)
	}

	return m, nil
}

func (m *ingestionMetrics) RecordJobEnqueued(ctx context.Context, queue string) {
	queue = NormalizeReason(queue, AllowedQueues)
	m.jobsEnqueued.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrQueue, queue)))
}

func (m *ingestionMetrics) RecordEnqueueError(ctx context.Context, reason string) {
	reason = NormalizeReason(reason, AllowedEnqueueReasons)
	m.enqueueErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

func (m *ingestionMetrics) RecordOutcome(ctx context.Context, outcome string, duration time.Duration) {
	outcome = NormalizeReason(outcome, AllowedIngestionOutcomes)
	attrs := metric.WithAttributes(attribute.String(AttrOutcome, outcome))
	m.outcomes.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}

func (m *ingestionMetrics) SetQueueDepth(depth int) {
	m.queueDepth.Store(int64(depth))
}
