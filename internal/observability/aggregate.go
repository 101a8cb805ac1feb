package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all gallery metric collectors. When metrics are disabled, all fields are nil.
// Components accept the individual interfaces and already handle nil.
type Metrics struct {
	HTTP      HTTPMetrics
	Ingestion IngestionMetrics
	Search    SearchMetrics
	Cache     CacheMetrics
}

// NewMetrics creates every collector from the given meter.
// Returns an empty Metrics when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		return &Metrics{}, nil
	}

	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	ingestion, err := NewIngestionMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("ingestion metrics: %w", err)
	}

	search, err := NewSearchMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("search metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	return &Metrics{
		HTTP:      httpMetrics,
		Ingestion: ingestion,
		Search:    search,
		Cache:     cache,
	}, nil
}
