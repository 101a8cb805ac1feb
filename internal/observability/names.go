// Package observability provides OpenTelemetry metrics and tracing plus trace-aware logging for the gallery.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRequestCount        = "gallery_http_requests_total"
	MetricNameRequestDuration     = "gallery_http_request_duration_seconds"
	MetricNameRequestBodyTooLarge = "gallery_http_request_body_too_large_total"
	MetricNameIngestionJobs       = "gallery_ingestion_jobs_enqueued_total"
	MetricNameIngestionEnqueueErr = "gallery_ingestion_enqueue_errors_total"
	MetricNameIngestionOutcomes   = "gallery_ingestion_outcomes_total"
	MetricNameIngestionDuration   = "gallery_ingestion_duration_seconds"
	MetricNameIngestionQueueDepth = "gallery_ingestion_queue_depth"
	MetricNameSearches            = "gallery_searches_total"
	MetricNameSearchDuration      = "gallery_search_duration_seconds"
	MetricNameSearchResults       = "gallery_search_results"
	MetricNameCacheHits           = "gallery_cache_hits_total"
	MetricNameCacheMisses         = "gallery_cache_misses_total"
)

// Attribute keys.
const (
	AttrCache       = "cache"
	AttrMethod      = "method"
	AttrOutcome     = "outcome"
	AttrQueue       = "queue"
	AttrReason      = "reason"
	AttrRoute       = "route"
	AttrStatusClass = "status_class"
)

// Cache names used with CacheMetrics.
const (
	CacheQueryEmbedding = "query_embedding"
)

// Ingestion outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeCaptionFailed = "caption_failed"
	OutcomeNoEmbedding   = "no_embedding"
	OutcomeFailed        = "failed"
	OutcomeDuplicate     = "duplicate"
)

// Search outcomes.
const (
	OutcomeHits        = "hits"
	OutcomeEmpty       = "empty"
	OutcomeEmbedFailed = "embed_failed"
	OutcomeStoreFailed = "store_failed"
)

// AllowedIngestionOutcomes bounds the outcome label of gallery_ingestion_*.
var AllowedIngestionOutcomes = map[string]bool{
	OutcomeSuccess:       true,
	OutcomeCaptionFailed: true,
	OutcomeNoEmbedding:   true,
	OutcomeFailed:        true,
}

// AllowedSearchOutcomes bounds the outcome label of gallery_search*.
var AllowedSearchOutcomes = map[string]bool{
	OutcomeHits:        true,
	OutcomeEmpty:       true,
	OutcomeEmbedFailed: true,
	OutcomeStoreFailed: true,
}

// AllowedEnqueueReasons for gallery_ingestion_enqueue_errors_total.
var AllowedEnqueueReasons = map[string]bool{
	"queue_full":     true,
	"queue_stopped":  true,
	"insert_failed":  true,
	"store_rollback": true,
}

// AllowedCacheNames bounds the cache label.
var AllowedCacheNames = map[string]bool{
	CacheQueryEmbedding: true,
}

// AllowedQueues bounds the queue label.
var AllowedQueues = map[string]bool{
	"local": true,
	"river": true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeCacheName returns name if it is a known cache, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}
