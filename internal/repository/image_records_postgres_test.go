package repository

import (
	"context"
	"os"
	"testing"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/gallery/pkg/database"
)

// TestImageRecordsPostgresRepository needs a PostgreSQL server with pgvector available,
// named by TEST_DATABASE_URL. Each subtest truncates the table.
func TestImageRecordsPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, MigratePostgres(ctx, databaseURL))

	pool, err := database.NewPostgresPool(ctx, databaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runImageRecordsContract(t, func(t *testing.T) imageRecordsStore {
		_, err := pool.Exec(ctx, "TRUNCATE image_records")
		require.NoError(t, err)

		return NewImageRecordsPostgresRepository(pool)
	})
}
