// Package embeddings wraps a text-embedding model behind a process-lifetime Generator.
package embeddings

import "context"

// Client generates embedding vectors for text.
// Implemented by provider-specific clients (Ollama, OpenAI, Google Gemini) and MockClient.
type Client interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}
