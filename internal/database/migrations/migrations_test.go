package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"
	"time"

	"ms-storefront/internal/logger"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestDefaultOptions(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")
	t.Setenv("AUTO_MIGRATE", "")
	opts := DefaultOptions()
	assert.Equal(t, "./migrations", opts.MigrationsDir)
	assert.False(t, opts.AutoMigrate)

	t.Setenv("MIGRATIONS_DIR", "/srv/migrations")
	t.Setenv("AUTO_MIGRATE", "true")
	opts = DefaultOptions()
	assert.Equal(t, "/srv/migrations", opts.MigrationsDir)
	assert.True(t, opts.AutoMigrate)
}

func TestInitialize_MissingDir(t *testing.T) {
	r := NewRunner(nil, MigrateOptions{MigrationsDir: "./does-not-exist"}, logger.NewWithWriter(io.Discard))

	err := r.Initialize()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist")
}

func TestInitialize_NilDatabase(t *testing.T) {
	r := NewRunner(nil, MigrateOptions{MigrationsDir: "../../../migrations"}, logger.NewWithWriter(io.Discard))

	assert.Error(t, r.Initialize())
}

func startPostgres(t *testing.T) *sql.DB {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "storefront",
				"POSTGRES_PASSWORD": "storefront",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestMigrateUpDownIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}

	db := startPostgres(t)
	r := NewRunner(db, MigrateOptions{MigrationsDir: "../../../migrations"}, logger.NewWithWriter(io.Discard))
	defer r.Close()

	require.NoError(t, r.MigrateUp())
	version, dirty, err := r.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	for _, table := range []string{"events", "event_tags", "ticket_types", "promo_codes", "orders", "order_items"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	// Idempotent
	require.NoError(t, r.MigrateUp())

	require.NoError(t, r.MigrateDown())
	version, _, err = r.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, tableExists(t, db, "orders"))
}
