package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingServer(t *testing.T, embedding []float64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": embedding},
			},
			"usage": map[string]any{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
}

func TestClient_CreateEmbedding(t *testing.T) {
	t.Run("converts response", func(t *testing.T) {
		srv := newEmbeddingServer(t, []float64{0.5, -0.25, 1})
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))

		got, err := client.CreateEmbedding(context.Background(), "a red car")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, -0.25, 1}, got)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		srv := newEmbeddingServer(t, []float64{0.5, -0.25, 1})
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL), WithDimensions(4))

		_, err := client.CreateEmbedding(context.Background(), "a red car")
		require.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("empty input", func(t *testing.T) {
		client := NewClient("test-key")

		_, err := client.CreateEmbedding(context.Background(), " \n")
		require.ErrorIs(t, err, ErrEmptyInput)
	})
}
