// Package vision captions images with any OpenAI-compatible chat completions endpoint that
// accepts image inputs (OpenAI, LocalAI, vLLM, LM Studio, Ollama's /v1).
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var (
	// ErrEmptyImage is returned when Describe is called without image bytes.
	ErrEmptyImage = errors.New("vision: image is empty")
	// ErrNoChoices is returned when the completion has no choices or only blank text.
	ErrNoChoices = errors.New("vision: no caption in response")
)

const (
	defaultModel     = openai.GPT4oMini
	defaultMaxTokens = 300
	defaultPrompt    = "Describe this image in detail, including all visible elements, colors, actions, and context."
)

// Captioner implements image captioning via chat completions with an image_url part.
type Captioner struct {
	client    *openai.Client
	model     string
	prompt    string
	maxTokens int
}

// Option configures the Captioner.
type Option func(*Captioner)

// WithModel sets the vision model. Empty keeps the default.
func WithModel(model string) Option {
	return func(c *Captioner) {
		if model != "" {
			c.model = model
		}
	}
}

// WithPrompt overrides the instruction sent with every image.
func WithPrompt(prompt string) Option {
	return func(c *Captioner) {
		if prompt != "" {
			c.prompt = prompt
		}
	}
}

// WithMaxTokens caps the caption length.
func WithMaxTokens(n int) Option {
	return func(c *Captioner) {
		c.maxTokens = n
	}
}

// NewCaptioner creates a captioner. An empty baseURL targets api.openai.com.
func NewCaptioner(apiKey, baseURL string, opts ...Option) *Captioner {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	c := &Captioner{
		client:    openai.NewClientWithConfig(cfg),
		model:     defaultModel,
		prompt:    defaultPrompt,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Model returns the configured model name.
func (c *Captioner) Model() string {
	return c.model
}

// Describe sends the image as a base64 data URL and returns the model's caption.
func (c *Captioner) Describe(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: c.prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL(image),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	if caption == "" {
		return "", ErrNoChoices
	}

	return caption, nil
}

func dataURL(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}
