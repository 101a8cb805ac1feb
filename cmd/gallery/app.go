package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/formbricks/gallery/internal/api/handlers"
	"github.com/formbricks/gallery/internal/api/middleware"
	"github.com/formbricks/gallery/internal/bootstrap"
	"github.com/formbricks/gallery/internal/config"
	"github.com/formbricks/gallery/internal/jobs"
	"github.com/formbricks/gallery/internal/observability"
	"github.com/formbricks/gallery/internal/service"
	"github.com/formbricks/gallery/internal/workers"
	"github.com/formbricks/gallery/pkg/cache"
)

const riverQueueDepthInterval = 15 * time.Second

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	records *bootstrap.RecordStore
	routes  routes
	server  *http.Server

	// exactly one of queue and river is set, per cfg.IngestionQueue
	queue *jobs.LocalQueue
	river *river.Client[pgx.Tx]

	meterProvider  observability.MeterProviderShutdown
	tracerProvider *sdktrace.TracerProvider
	metrics        *observability.Metrics
}

// routes bundles the HTTP handlers registered by newHTTPServer.
type routes struct {
	health  *handlers.HealthHandler
	images  *handlers.ImagesHandler
	search  *handlers.SearchHandler
	files   *handlers.FilesHandler
	metrics http.Handler
}

// NewApp builds and wires all components. It does not start the HTTP server or the ingestion
// queue; call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{cfg: cfg, logger: logger}

	// release whatever was already opened when a later step fails
	defer func() {
		if err != nil {
			if closeErr := app.closeResources(context.Background()); closeErr != nil {
				logger.Error("release resources after init failure", "error", closeErr)
			}
		}
	}()

	metricsHandler, err := app.setupObservability(ctx)
	if err != nil {
		return nil, err
	}

	app.records, err = bootstrap.OpenRecordStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	blobs, err := bootstrap.OpenBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	generator, err := bootstrap.NewEmbeddingGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	captioner, err := bootstrap.NewCaptioner(cfg)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.IngestionRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.IngestionRateLimit), 1)
	}

	ingestion := service.NewIngestionService(service.IngestionServiceParams{
		Captioner:    captioner,
		Images:       blobs,
		Embedder:     generator,
		Repo:         app.records.Repo,
		Limiter:      limiter,
		MaxDimension: cfg.ImageMaxDimension,
		Metrics:      app.metrics.Ingestion,
		Logger:       logger,
	})

	inserter, err := app.setupQueue(ctx, ingestion)
	if err != nil {
		return nil, err
	}

	queryCache, err := cache.NewLoaderCache[string, []float32](
		cfg.SearchQueryCacheSize,
		func(q string) string { return q },
		cache.WithTTL(cfg.SearchQueryCacheTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("create search query cache: %w", err)
	}

	searchService := service.NewSearchService(service.SearchServiceParams{
		Embedder:     generator,
		Repo:         app.records.Repo,
		QueryCache:   queryCache,
		CacheMetrics: app.metrics.Cache,
		Metrics:      app.metrics.Search,
		Logger:       logger,
	})

	imagesService := service.NewImagesService(service.ImagesServiceParams{
		Store:     blobs,
		Repo:      app.records.Repo,
		Inserter:  inserter,
		QueueName: cfg.IngestionQueue,
		Metrics:   app.metrics.Ingestion,
		Logger:    logger,
	})

	app.routes = routes{
		health:  handlers.NewHealthHandler(),
		images:  handlers.NewImagesHandler(imagesService),
		search:  handlers.NewSearchHandler(searchService, cfg.SearchDefaultTopK),
		files:   handlers.NewFilesHandler(blobs),
		metrics: metricsHandler,
	}
	app.server = newHTTPServer(cfg, logger, app.routes, app.metrics.HTTP, app.tracerProvider)

	logger.Info("gallery configured",
		"record_store", cfg.RecordStore,
		"blob_store", cfg.BlobStore,
		"queue", cfg.IngestionQueue,
		"embedding_provider", cfg.EmbeddingProvider,
		"embedding_available", generator.Available(),
		"caption_provider", cfg.CaptionProvider,
	)

	return app, nil
}

// setupObservability creates the meter and tracer providers. It returns the /metrics handler,
// which is nil when metrics are disabled.
func (a *App) setupObservability(ctx context.Context) (http.Handler, error) {
	var (
		meter          metric.Meter
		metricsHandler http.Handler
	)

	if a.cfg.MetricsEnabled {
		mp, handler, m, err := observability.NewMeterProvider(ctx, observability.MeterProviderConfig{
			ServiceName: a.cfg.OTelServiceName,
		})
		if err != nil {
			return nil, fmt.Errorf("create meter provider: %w", err)
		}

		a.meterProvider = mp
		metricsHandler = handler
		meter = m
	} else {
		a.logger.Warn("metrics not enabled (METRICS_ENABLED=false)")
	}

	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	a.metrics = metrics

	tp, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
		ServiceName: a.cfg.OTelServiceName,
		Exporter:    a.cfg.TracesExporter,
		Sampler:     a.cfg.TracesSampler,
		SamplerArg:  a.cfg.TracesSamplerArg,
	})
	if err != nil {
		return nil, fmt.Errorf("create tracer provider: %w", err)
	}

	if tp != nil {
		a.tracerProvider = tp
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		))
	} else {
		a.logger.Info("tracing not enabled (OTEL_TRACES_EXPORTER unset or none)")
	}

	return metricsHandler, nil
}

// setupQueue builds the ingestion queue named by cfg.IngestionQueue.
func (a *App) setupQueue(ctx context.Context, processor jobs.Processor) (jobs.IngestionInserter, error) {
	switch a.cfg.IngestionQueue {
	case config.QueueRiver:
		if err := jobs.MigrateRiver(ctx, a.records.Pool); err != nil {
			return nil, err
		}

		riverWorkers := river.NewWorkers()
		river.AddWorker(riverWorkers, workers.NewImageIngestionWorker(processor, a.cfg.IngestionTimeout))

		client, err := jobs.NewRiverClient(a.records.Pool, riverWorkers, jobs.RiverClientConfig{
			MaxWorkers: a.cfg.IngestionWorkers,
			Logger:     a.logger,
		})
		if err != nil {
			return nil, err
		}

		a.river = client

		return jobs.NewRiverInserter(client, a.cfg.IngestionMaxAttempts), nil

	default:
		a.queue = jobs.NewLocalQueue(processor, jobs.LocalQueueOptions{
			Workers:    a.cfg.IngestionWorkers,
			Size:       a.cfg.IngestionQueueSize,
			JobTimeout: a.cfg.IngestionTimeout,
			Metrics:    a.metrics.Ingestion,
			Logger:     a.logger,
		})

		return a.queue, nil
	}
}

// newHTTPServer builds the mux and middleware chain:
// RequestID -> otelhttp -> Logging -> CORS -> Metrics -> MaxBody -> mux.
func newHTTPServer(
	cfg *config.Config,
	logger *slog.Logger,
	r routes,
	httpMetrics observability.HTTPMetrics,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", r.health.Check)
	mux.HandleFunc("POST /api/upload", r.images.Upload)
	mux.HandleFunc("GET /api/images", r.images.List)
	mux.HandleFunc("GET /api/images/{id}", r.images.Get)
	mux.HandleFunc("POST /api/search", r.search.Search)
	mux.HandleFunc("GET /api/search", r.search.SearchQuery)
	mux.HandleFunc("GET /images/{filename}", r.files.Serve)

	if r.metrics != nil {
		mux.Handle("GET /metrics", r.metrics)
	}

	var handler http.Handler = mux
	handler = middleware.MaxBody(cfg.MaxUploadBytes, httpMetrics)(handler)
	handler = middleware.Metrics(httpMetrics)(handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins)(handler)
	handler = middleware.Logging(logger)(handler)

	otelOpts := []otelhttp.Option{
		// health checks and scrapes would drown real traffic
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/api/health" && r.URL.Path != "/metrics"
		}),
	}
	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	handler = otelhttp.NewHandler(handler, "gallery-api", otelOpts...)
	handler = middleware.RequestID(handler)

	const (
		readHeaderTimeout = 10 * time.Second
		readTimeout       = 60 * time.Second
		idleTimeout       = 60 * time.Second
	)

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		// search embeds the query synchronously; allow for a slow local model
		WriteTimeout: cfg.CaptionTimeout + 30*time.Second,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the ingestion queue and the HTTP server, then blocks until ctx is cancelled
// (e.g. signal) or a component fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	queueCtx, cancelQueue := context.WithCancel(ctx)
	defer cancelQueue()

	if a.queue != nil {
		a.queue.Start(queueCtx)
	}

	if a.river != nil {
		if err := a.river.Start(queueCtx); err != nil {
			return fmt.Errorf("river: %w", err)
		}

		if a.metrics.Ingestion != nil {
			go runRiverQueueDepthPoller(queueCtx, a.records.Pool, a.metrics.Ingestion)
		}
	}

	go func() {
		a.logger.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// runRiverQueueDepthPoller periodically updates the ingestion queue depth gauge from river_job.
func runRiverQueueDepthPoller(ctx context.Context, db *pgxpool.Pool, metrics observability.IngestionMetrics) {
	ticker := time.NewTicker(riverQueueDepthInterval)
	defer ticker.Stop()

	update := func() {
		var count int

		err := db.QueryRow(ctx,
			`SELECT COUNT(*) FROM river_job WHERE queue = $1 AND state IN ($2, $3, $4)`,
			jobs.QueueIngestion,
			rivertype.JobStateAvailable, rivertype.JobStateRetryable, rivertype.JobStateScheduled,
		).Scan(&count)
		if err != nil {
			slog.WarnContext(ctx, "river queue depth poll failed", "error", err)

			return
		}

		metrics.SetQueueDepth(count)
	}

	update()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

// Shutdown stops the server, drains the ingestion queue, then closes stores and telemetry.
// Call after Run returns.
func (a *App) Shutdown(ctx context.Context) error {
	var first error

	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		first = fmt.Errorf("server shutdown: %w", err)
	}

	if err := a.stopQueue(ctx); err != nil {
		if first == nil {
			first = err
		} else {
			a.logger.Error("queue stop", "error", err)
		}
	}

	if err := a.closeResources(ctx); err != nil && first == nil {
		first = err
	}

	return first
}

func (a *App) stopQueue(ctx context.Context) error {
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			return fmt.Errorf("ingestion queue stop: %w", err)
		}
	}

	if a.river != nil {
		if err := a.river.Stop(ctx); err != nil {
			return fmt.Errorf("river stop: %w", err)
		}
	}

	return nil
}

// closeResources closes the record store and flushes telemetry. Logs secondary errors, returns the first.
func (a *App) closeResources(ctx context.Context) error {
	if a.records != nil {
		a.records.Close()
	}

	var first error

	if a.tracerProvider != nil {
		if err := observability.ShutdownTracerProvider(ctx, a.tracerProvider); err != nil {
			first = err
		}
	}

	if err := observability.ShutdownMeterProvider(ctx, a.meterProvider); err != nil {
		if first == nil {
			first = err
		} else {
			slog.Error("shutdown meter provider", "error", err)
		}
	}

	return first
}
