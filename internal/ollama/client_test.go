package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Describe(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "moondream", req.Model)
		assert.Equal(t, DefaultPrompt, req.Prompt)
		assert.False(t, req.Stream)
		assert.Equal(t, []string{base64.StdEncoding.EncodeToString(image)}, req.Images)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "  A red car parked on a street.\n", Done: true})
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")

	caption, err := client.Describe(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "A red car parked on a street.", caption)
}

func TestClient_DescribeErrors(t *testing.T) {
	t.Run("empty image", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")

		_, err := client.Describe(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyImage)
	})

	t.Run("blank caption", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
		}))
		defer server.Close()

		_, err := NewClient(server.URL).Describe(context.Background(), []byte{1})
		assert.ErrorIs(t, err, ErrEmptyCaption)
	})

	t.Run("model not pulled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model \"moondream\" not found"}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).Describe(context.Background(), []byte{1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})
}

func TestClient_CreateEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "a blue sky", req.Input)

		_ = json.NewEncoder(w).Encode(embedResponse{
			Model:      req.Model,
			Embeddings: [][]float32{{0.6, 0.8}},
		})
	}))
	defer server.Close()

	client := NewClientWithOptions(ClientOptions{BaseURL: server.URL, EmbeddingModel: "nomic-embed-text"})

	got, err := client.CreateEmbedding(context.Background(), "  a blue sky ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, got)

	_, err = client.CreateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClient_CreateEmbeddingNoVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Model: "all-minilm"})
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CreateEmbedding(context.Background(), "sky")
	assert.ErrorIs(t, err, ErrNoEmbeddingInResponse)
}
