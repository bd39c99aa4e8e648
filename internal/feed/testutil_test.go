package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"coin-feed/internal/storage/migrations"
	"coin-feed/internal/storage/postgres"
)

// backend builds a fresh set of stores for one test.
type backend struct {
	name   string
	stores func(t *testing.T) Stores
}

func testBackends() []backend {
	return []backend{
		{name: "memory", stores: func(*testing.T) Stores {
			stores, _ := NewMemoryStores()
			return stores
		}},
		{name: "postgres", stores: postgresStores},
	}
}

// postgresStores starts a migrated PostgreSQL container and wires the stores on it.
func postgresStores(t *testing.T) Stores {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = migrations.RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)

	stores, _ := NewPostgresStores(pool)
	return stores
}
