package migrations_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"museum-visits/internal/config"
	"museum-visits/internal/database"
	"museum-visits/internal/database/migrations"
	"museum-visits/internal/logger"
	"museum-visits/internal/models"
)

// TestPostgresMigrations runs the embedded migrations against a real
// postgres container
func TestPostgresMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "museum",
				"POSTGRES_PASSWORD": "museum",
				"POSTGRES_DB":       "museum",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer pg.Terminate(ctx)

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://museum:museum@%s:%s/museum?sslmode=disable", host, port.Port())
	log := logger.NewLoggerWithWriter(&bytes.Buffer{})

	runner := migrations.NewRunner(dsn, migrations.MigrateOptions{AutoMigrate: true, SeedData: false}, log)
	require.NoError(t, runner.RunMigrations())

	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, migrations.SchemaVersion, version)
	assert.False(t, dirty)

	require.NoError(t, runner.MigrateUp())
	require.NoError(t, runner.Close())

	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		DSN:          dsn,
		MaxOpenConns: 2,
		MaxIdleConns: 2,
	}, log)
	require.NoError(t, err)
	defer db.Close()

	var eventTypes []models.EventType
	require.NoError(t, db.NewSelect().Model(&eventTypes).Order("id ASC").Scan(ctx))
	assert.Len(t, eventTypes, 8)

	visit := models.Visit{
		Date:           "2024-07-15",
		VisitType:      models.VisitTypeGroup,
		AgeGroupCounts: models.AgeGroupCounts{ChildrenCount: 25, AdultsCount: 2},
		EventTypeID:    2,
	}
	_, err = db.NewInsert().Model(&visit).Exec(ctx)
	require.NoError(t, err)
	assert.NotZero(t, visit.ID)

	rollback := migrations.NewRunner(dsn, migrations.DefaultOptions(), log)
	defer rollback.Close()
	require.NoError(t, rollback.MigrateTo(1))

	eventTypes = nil
	require.NoError(t, db.NewSelect().Model(&eventTypes).Order("id ASC").Scan(ctx))
	require.Len(t, eventTypes, 1)
	assert.Equal(t, int64(2), eventTypes[0].ID)

	count, err := db.NewSelect().Model((*models.Visit)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
