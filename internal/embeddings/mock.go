package embeddings

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"

	vec "github.com/formbricks/gallery/pkg/embeddings"
)

var errEmptyText = errors.New("embeddings: text cannot be empty")

// MockClient generates deterministic unit-length embeddings from the text hash.
// Used when EMBEDDING_PROVIDER=mock and in tests; similarity between different texts carries no meaning.
type MockClient struct {
	dimensions int
}

// NewMockClient creates a mock client with 384 dimensions (the size of all-MiniLM-L6-v2).
func NewMockClient() *MockClient {
	return &MockClient{dimensions: 384}
}

// NewMockClientWithDimensions creates a mock client with custom dimensions.
func NewMockClientWithDimensions(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding returns a deterministic embedding for text.
func (c *MockClient) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errEmptyText
	}

	hash := sha256.Sum256([]byte(text))
	embedding := make([]float32, c.dimensions)

	for i := range embedding {
		// bytes cycled into [-1, 1]
		embedding[i] = (float32(hash[i%len(hash)]) / 127.5) - 1.0
	}

	vec.NormalizeL2(embedding)

	return embedding, nil
}

var _ Client = (*MockClient)(nil)
