package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRecordsFileRepository(t *testing.T) {
	runImageRecordsContract(t, func(t *testing.T) imageRecordsStore {
		return NewImageRecordsFileRepository(filepath.Join(t.TempDir(), "data", "images.json"))
	})
}

func TestImageRecordsFileRepository_Document(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "images.json")
	repo := NewImageRecordsFileRepository(path)

	require.NoError(t, repo.Append(ctx, newTestRecord("a red car", []float32{1, 0})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc["images"], 1)

	entry := doc["images"][0]
	for _, key := range []string{"id", "filename", "path", "description", "uploaded_at", "embedding"} {
		assert.Contains(t, entry, key)
	}

	assert.Contains(t, string(data), "\n  \"images\"", "document uses two-space indentation")
}

func TestImageRecordsFileRepository_TolerantLoad(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"corrupt json", "{\"images\": [ {\"id\": "},
		{"missing images key", "{}"},
		{"null images", "{\"images\": null}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "images.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			records, err := NewImageRecordsFileRepository(path).LoadAll(ctx)
			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		records, err := NewImageRecordsFileRepository(filepath.Join(t.TempDir(), "nope.json")).LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestImageRecordsFileRepository_ReadsNullEmbedding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.json")
	content := `{
  "images": [
    {
      "id": "a1",
      "filename": "a1_cat.png",
      "path": "/images/a1_cat.png",
      "description": "Error processing image: timeout",
      "uploaded_at": "2026-01-02T03:04:05Z",
      "embedding": null
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	records, err := NewImageRecordsFileRepository(path).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].ID)
	assert.Nil(t, records[0].Embedding)
}
