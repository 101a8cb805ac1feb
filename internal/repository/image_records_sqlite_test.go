package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/gallery/pkg/database"
)

func newSQLiteRepo(t *testing.T) *ImageRecordsSQLiteRepository {
	t.Helper()

	ctx := context.Background()

	db, err := database.NewSQLiteDB(ctx, filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewImageRecordsSQLiteRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	return repo
}

func TestImageRecordsSQLiteRepository(t *testing.T) {
	runImageRecordsContract(t, func(t *testing.T) imageRecordsStore {
		return newSQLiteRepo(t)
	})
}

func TestImageRecordsSQLiteRepository_MalformedEmbeddingIsDropped(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO image_records (id, filename, path, description, uploaded_at, embedding)
		VALUES ('x', 'x_a.jpg', '/images/x_a.jpg', 'a cat', '2026-01-02T03:04:05Z', X'010203')`)
	require.NoError(t, err)

	records, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a cat", records[0].Description)
	assert.Nil(t, records[0].Embedding)
}

func TestImageRecordsSQLiteRepository_EnsureSchemaIdempotent(t *testing.T) {
	repo := newSQLiteRepo(t)
	require.NoError(t, repo.EnsureSchema(context.Background()))
}
