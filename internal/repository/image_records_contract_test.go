package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/gallery/internal/models"
)

// imageRecordsStore is the behaviour every backend must share.
type imageRecordsStore interface {
	Append(ctx context.Context, record models.ImageRecord) error
	LoadAll(ctx context.Context) ([]models.ImageRecord, error)
	Get(ctx context.Context, id string) (*models.ImageRecord, error)
	UpdateDescription(ctx context.Context, id, description string) error
}

func newTestRecord(description string, embedding []float32) models.ImageRecord {
	id := uuid.Must(uuid.NewV7()).String()
	filename := id + "_photo.jpg"

	return models.ImageRecord{
		ID:          id,
		Filename:    filename,
		Path:        "/images/" + filename,
		Description: description,
		UploadedAt:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Embedding:   embedding,
	}
}

func runImageRecordsContract(t *testing.T, newStore func(t *testing.T) imageRecordsStore) {
	ctx := context.Background()

	t.Run("empty store loads empty", func(t *testing.T) {
		store := newStore(t)

		records, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("append then load round trip", func(t *testing.T) {
		store := newStore(t)
		first := newTestRecord("a red car", []float32{0.6, 0.8, 0})
		second := newTestRecord("Error processing image: boom", nil)

		require.NoError(t, store.Append(ctx, first))
		require.NoError(t, store.Append(ctx, second))

		records, err := store.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, first.ID, records[0].ID)
		assert.Equal(t, first.Filename, records[0].Filename)
		assert.Equal(t, first.Path, records[0].Path)
		assert.Equal(t, first.Description, records[0].Description)
		assert.True(t, first.UploadedAt.Equal(records[0].UploadedAt))
		assert.InDeltaSlice(t, first.Embedding, records[0].Embedding, 1e-6)

		assert.Equal(t, second.ID, records[1].ID)
		assert.Nil(t, records[1].Embedding)
		assert.False(t, records[1].HasEmbedding())
	})

	t.Run("get", func(t *testing.T) {
		store := newStore(t)
		record := newTestRecord("a blue sky", []float32{1, 0})
		require.NoError(t, store.Append(ctx, record))

		got, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "a blue sky", got.Description)

		_, err = store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("update description", func(t *testing.T) {
		store := newStore(t)
		record := newTestRecord("a blue sky", []float32{1, 0})
		require.NoError(t, store.Append(ctx, record))

		require.NoError(t, store.UpdateDescription(ctx, record.ID, "Error processing image: disk full"))

		got, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "Error processing image: disk full", got.Description)
		assert.InDeltaSlice(t, []float32{1, 0}, got.Embedding, 1e-6)

		err = store.UpdateDescription(ctx, "missing", "x")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		store := newStore(t)
		record := newTestRecord("a red car", []float32{0.6, 0.8, 0})
		require.NoError(t, store.Append(ctx, record))

		again := record
		again.Description = "Error processing image: retried"

		err := store.Append(ctx, again)
		require.ErrorIs(t, err, ErrDuplicateID)

		records, err := store.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "a red car", records[0].Description)
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		store := newStore(t)

		const n = 20

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				assert.NoError(t, store.Append(ctx, newTestRecord("photo", []float32{float32(i), 1})))
			}(i)
		}

		wg.Wait()

		records, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, records, n)
	})
}
