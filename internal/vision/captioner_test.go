package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestCaptioner_Describe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					ImageURL struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llava", req.Model)
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)
		assert.Equal(t, "text", req.Messages[0].Content[0].Type)
		assert.True(t, strings.HasPrefix(req.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"llava",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" A cat on a sofa. "}}]}`))
	}))
	defer server.Close()

	captioner := NewCaptioner("test-key", server.URL+"/", WithModel("llava"))

	caption, err := captioner.Describe(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "A cat on a sofa.", caption)
}

func TestCaptioner_DescribeNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewCaptioner("k", server.URL).Describe(context.Background(), pngHeader)
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestCaptioner_DescribeEmptyImage(t *testing.T) {
	_, err := NewCaptioner("k", "").Describe(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestDataURL(t *testing.T) {
	assert.True(t, strings.HasPrefix(dataURL(pngHeader), "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(dataURL([]byte("not an image")), "data:image/jpeg;base64,"))
}
