// Package ollama talks to a local Ollama server: image captioning through /api/generate and
// caption embeddings through /api/embed.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultBaseURL is the address of a locally running Ollama server.
	DefaultBaseURL = "http://localhost:11434"
	// DefaultCaptionModel is a small vision-language model.
	DefaultCaptionModel = "moondream"
	// DefaultEmbeddingModel is all-MiniLM-L6-v2 as packaged by Ollama (384 dimensions).
	DefaultEmbeddingModel = "all-minilm"
	// DefaultPrompt asks for a caption rich enough to search against.
	DefaultPrompt = "Describe this image in detail, including all visible elements, colors, actions, and context."
)

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
	ErrEmptyInput = errors.New("ollama: input text is empty")
	// ErrEmptyImage is returned when Describe is called without image bytes.
	ErrEmptyImage = errors.New("ollama: image is empty")
	// ErrNoEmbeddingInResponse is returned when /api/embed returns no vectors.
	ErrNoEmbeddingInResponse = errors.New("ollama: no embedding in response")
	// ErrEmptyCaption is returned when the model answers with blank text.
	ErrEmptyCaption = errors.New("ollama: empty caption")
)

// ClientOptions configures the Ollama client.
type ClientOptions struct {
	// BaseURL is the server address (default: DefaultBaseURL).
	BaseURL string
	// CaptionModel is the vision model used by Describe (default: DefaultCaptionModel).
	CaptionModel string
	// EmbeddingModel is the model used by CreateEmbedding (default: DefaultEmbeddingModel).
	EmbeddingModel string
	// Prompt is sent with every image (default: DefaultPrompt).
	Prompt string
	// RetryMax is the maximum number of retries (default: 2).
	RetryMax int
	// Timeout bounds a single HTTP attempt (default: 120 seconds, vision models are slow on CPU).
	Timeout time.Duration
}

// Client is an Ollama API client.
type Client struct {
	baseURL        string
	captionModel   string
	embeddingModel string
	prompt         string
	httpClient     *retryablehttp.Client
}

// NewClient creates a client with default settings against baseURL.
func NewClient(baseURL string) *Client {
	return NewClientWithOptions(ClientOptions{BaseURL: baseURL})
}

// NewClientWithOptions creates a client with custom options.
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	if opts.CaptionModel == "" {
		opts.CaptionModel = DefaultCaptionModel
	}

	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = DefaultEmbeddingModel
	}

	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}

	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 2
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil

	return &Client{
		baseURL:        opts.BaseURL,
		captionModel:   opts.CaptionModel,
		embeddingModel: opts.EmbeddingModel,
		prompt:         opts.Prompt,
		httpClient:     retryClient,
	}
}

// CaptionModel returns the vision model name.
func (c *Client) CaptionModel() string {
	return c.captionModel
}

// EmbeddingModel returns the embedding model name.
func (c *Client) EmbeddingModel() string {
	return c.embeddingModel
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Describe captions an image with the vision model.
func (c *Client) Describe(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}

	var out generateResponse
	if err := c.post(ctx, "/api/generate", generateRequest{
		Model:  c.captionModel,
		Prompt: c.prompt,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
		Stream: false,
	}, &out); err != nil {
		return "", err
	}

	caption := strings.TrimSpace(out.Response)
	if caption == "" {
		return "", ErrEmptyCaption
	}

	return caption, nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// CreateEmbedding returns the embedding vector for the given text. Ollama's /api/embed
// returns L2-normalized vectors.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	var out embedResponse
	if err := c.post(ctx, "/api/embed", embedRequest{Model: c.embeddingModel, Input: input}, &out); err != nil {
		return nil, err
	}

	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, ErrNoEmbeddingInResponse
	}

	return out.Embeddings[0], nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama %s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
