package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// ErrModelUnavailable is returned by NewGenerator when the model could not be initialized.
// The Generator returned alongside it reports every Embed as failed.
var ErrModelUnavailable = errors.New("embeddings: model unavailable")

// probeText is embedded once at startup to verify the backend and learn the vector dimension.
const probeText = "a photo"

// Generator maps text to fixed-dimension vectors. It is constructed once per process; a failed
// initialization degrades it permanently so Embed always reports failure instead of erroring.
type Generator struct {
	client     Client
	model      string
	dimensions int
	available  atomic.Bool
	logger     *slog.Logger
}

// GeneratorOption configures the Generator.
type GeneratorOption func(*Generator)

// WithModel records the model name for logs and metrics.
func WithModel(model string) GeneratorOption {
	return func(g *Generator) {
		g.model = model
	}
}

// WithDimensions pins the expected vector dimension instead of learning it from the probe.
func WithDimensions(dim int) GeneratorOption {
	return func(g *Generator) {
		g.dimensions = dim
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator initializes the model by embedding a probe text. It always returns a usable
// Generator; when client is nil or the probe fails, the error wraps ErrModelUnavailable and the
// Generator is degraded.
func NewGenerator(ctx context.Context, client Client, opts ...GeneratorOption) (*Generator, error) {
	g := &Generator{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}

	if client == nil {
		return g, fmt.Errorf("%w: no embedding client configured", ErrModelUnavailable)
	}

	vec, err := client.CreateEmbedding(ctx, probeText)
	if err != nil {
		return g, fmt.Errorf("%w: probe embedding: %w", ErrModelUnavailable, err)
	}

	if len(vec) == 0 {
		return g, fmt.Errorf("%w: probe returned an empty vector", ErrModelUnavailable)
	}

	if g.dimensions == 0 {
		g.dimensions = len(vec)
	} else if len(vec) != g.dimensions {
		return g, fmt.Errorf("%w: probe returned %d dimensions, want %d", ErrModelUnavailable, len(vec), g.dimensions)
	}

	g.available.Store(true)
	g.logger.Info("embedding model initialized", "model", g.model, "dimensions", g.dimensions)

	return g, nil
}

// Embed returns the embedding for text and true, or nil and false when the text is blank,
// the model is unavailable, the backend fails, or the vector has the wrong dimension.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, bool) {
	if !g.available.Load() {
		g.logger.DebugContext(ctx, "embedding skipped: model unavailable", "model", g.model)

		return nil, false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	vec, err := g.client.CreateEmbedding(ctx, text)
	if err != nil {
		g.logger.WarnContext(ctx, "embedding failed", "model", g.model, "error", err)

		return nil, false
	}

	if len(vec) != g.dimensions {
		g.logger.WarnContext(ctx, "embedding dimension mismatch",
			"model", g.model, "got", len(vec), "want", g.dimensions)

		return nil, false
	}

	return vec, true
}

// Available reports whether the model initialized successfully.
func (g *Generator) Available() bool {
	return g.available.Load()
}

// Dimensions returns the vector dimension D, or 0 when the model never initialized.
func (g *Generator) Dimensions() int {
	return g.dimensions
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}
