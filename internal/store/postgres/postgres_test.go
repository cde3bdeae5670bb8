package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"sparkAPI/internal/store"
	"sparkAPI/internal/store/storetest"
)

// setupTestDB connects to TEST_DATABASE_URL and applies the schema. Tests are
// skipped when it is not set.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresStore(t *testing.T) {
	pool := setupTestDB(t)
	storetest.Run(t, func(t *testing.T) store.Store { return New(pool) })
}

func TestMigrateIsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	require.NoError(t, Migrate(context.Background(), pool))
}
