package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/formbricks/gallery/internal/models"
	"github.com/formbricks/gallery/internal/observability"
	"github.com/formbricks/gallery/pkg/cache"
	vec "github.com/formbricks/gallery/pkg/embeddings"
)

// DefaultTopK is the number of results returned when the caller does not ask for a count.
const DefaultTopK = 5

// errQueryEmbedding marks a failed query embedding so the loader cache does not keep it.
var errQueryEmbedding = errors.New("query embedding failed")

// ImageRecordsLoader is the read side of the record store needed for search.
type ImageRecordsLoader interface {
	LoadAll(ctx context.Context) ([]models.ImageRecord, error)
}

// SearchService ranks stored images by cosine similarity between the query embedding and
// each caption embedding. It scans every record; there is no index.
type SearchService struct {
	embedder     Embedder
	repo         ImageRecordsLoader
	queryCache   *cache.LoaderCache[string, []float32]
	cacheMetrics observability.CacheMetrics
	metrics      observability.SearchMetrics
	logger       *slog.Logger
}

// SearchServiceParams configures SearchService. QueryCache and metrics may be nil.
type SearchServiceParams struct {
	Embedder     Embedder
	Repo         ImageRecordsLoader
	QueryCache   *cache.LoaderCache[string, []float32]
	CacheMetrics observability.CacheMetrics
	Metrics      observability.SearchMetrics
	Logger       *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchService{
		embedder:     p.Embedder,
		repo:         p.Repo,
		queryCache:   p.QueryCache,
		cacheMetrics: p.CacheMetrics,
		metrics:      p.Metrics,
		logger:       logger,
	}
}

// Search returns at most topK records ordered by similarity to query, highest first. Ties keep
// insertion order. Records without an embedding never appear. Every failure (blank query,
// embedding failure, unreadable store) degrades to an empty result instead of an error.
func (s *SearchService) Search(ctx context.Context, query string, topK int) []models.ImageRecordWithScore {
	ctx, span := observability.Tracer().Start(ctx, "SearchService.Search")
	defer span.End()

	start := time.Now()
	results := []models.ImageRecordWithScore{}

	query = strings.TrimSpace(query)
	if query == "" || topK <= 0 {
		s.record(ctx, observability.OutcomeEmpty, 0, start)

		return results
	}

	queryVec, ok := s.embedQuery(ctx, query)
	if !ok {
		span.SetStatus(codes.Error, "query embedding failed")
		s.record(ctx, observability.OutcomeEmbedFailed, 0, start)

		return results
	}

	records, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "search: load records failed, treating store as empty", "error", err)
		span.RecordError(err)
		s.record(ctx, observability.OutcomeStoreFailed, 0, start)

		return results
	}

	for i := range records {
		record := &records[i]
		if !record.HasEmbedding() {
			continue
		}

		score, err := vec.CosineSimilarity(queryVec, record.Embedding)
		if err != nil {
			s.logger.WarnContext(ctx, "search: skipping record with incompatible embedding",
				"id", record.ID, "error", err)

			continue
		}

		results = append(results, models.ImageRecordWithScore{
			ImageRecord: record.WithoutEmbedding(),
			Similarity:  score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}

	span.SetAttributes(
		attribute.Int("search.top_k", topK),
		attribute.Int("search.scanned", len(records)),
		attribute.Int("search.results", len(results)),
	)

	outcome := observability.OutcomeHits
	if len(results) == 0 {
		outcome = observability.OutcomeEmpty
	}

	s.record(ctx, outcome, len(results), start)

	return results
}

func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, bool) {
	if s.queryCache == nil {
		return s.embedder.Embed(ctx, query)
	}

	embedding, hit, err := s.queryCache.GetWithStats(ctx, query, func(ctx context.Context, q string) ([]float32, error) {
		v, ok := s.embedder.Embed(ctx, q)
		if !ok {
			return nil, errQueryEmbedding
		}

		return v, nil
	})
	if err != nil {
		return nil, false
	}

	if s.cacheMetrics != nil {
		if hit {
			s.cacheMetrics.RecordHit(ctx, observability.CacheQueryEmbedding)
		} else {
			s.cacheMetrics.RecordMiss(ctx, observability.CacheQueryEmbedding)
		}
	}

	return embedding, true
}

func (s *SearchService) record(ctx context.Context, outcome string, n int, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordSearch(ctx, outcome, n, time.Since(start))
	}
}
