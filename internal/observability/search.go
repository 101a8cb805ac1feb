package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SearchMetrics records semantic search latency, outcome and result counts.
type SearchMetrics interface {
	RecordSearch(ctx context.Context, outcome string, results int, duration time.Duration)
}

type searchMetrics struct {
	searches metric.Int64Counter
	duration metric.Float64Histogram
	results  metric.Int64Histogram
}

// NewSearchMetrics creates SearchMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewSearchMetrics(meter metric.Meter) (SearchMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	searches, err := meter.Int64Counter(
		MetricNameSearches,
		metric.WithDescription("Semantic searches by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create searches counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameSearchDuration,
		metric.WithDescription("Search duration including query embedding (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search duration histogram: %w", err)
	}

	results, err := meter.Int64Histogram(
		MetricNameSearchResults,
		metric.WithDescription("Number of results returned per search"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search results histogram: %w", err)
	}

	return &searchMetrics{searches: searches, duration: duration, results: results}, nil
}

func (m *searchMetrics) RecordSearch(ctx context.Context, outcome string, results int, duration time.Duration) {
	outcome = NormalizeReason(outcome, AllowedSearchOutcomes)
	attrs := metric.WithAttributes(attribute.String(AttrOutcome, outcome))
	m.searches.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
	m.results.Record(ctx, int64(results))
}
