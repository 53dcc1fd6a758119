package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"museum-visits/internal/config"
	"museum-visits/internal/logger"
	"museum-visits/internal/models"
)

const (
	maxRetries = 5
	retryDelay = 2 * time.Second
)

// Open connects to the configured backend and returns a bun handle. Postgres
// is retried a few times since it is usually still starting alongside us.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		sqldb, err := openWithRetry(ctx, "postgres", cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
		log.Info("DATABASE", "✅ PostgreSQL connection successful")
		return bun.NewDB(sqldb, pgdialect.New()), nil

	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("DATABASE", fmt.Sprintf("✅ SQLite database opened at %s", cfg.DSN))
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenSQLite opens a SQLite database through bun's driver shim. A single
// connection keeps ":memory:" databases from splitting across the pool and
// serialises writers on file databases.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func openWithRetry(ctx context.Context, driver, dsn string, log *logger.Logger) (*sql.DB, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))

		sqldb, err := sql.Open(driver, dsn)
		if err == nil {
			if err = sqldb.PingContext(ctx); err == nil {
				return sqldb, nil
			}
			sqldb.Close()
		}
		lastErr = err
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// Bootstrap creates the schema from the bun models and optionally installs
// the reference event types. It is idempotent and serves backends without
// SQL migrations (SQLite).
func Bootstrap(ctx context.Context, db *bun.DB, seed bool) error {
	if _, err := db.NewCreateTable().
		Model((*models.EventType)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create event_types table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*models.Visit)(nil)).
		IfNotExists().
		ForeignKey(`("event_type_id") REFERENCES "event_types" ("id")`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create visits table: %w", err)
	}

	if _, err := db.NewCreateIndex().
		Model((*models.Visit)(nil)).
		Index("idx_visits_date").
		IfNotExists().
		Column("date").
		Exec(ctx); err != nil {
		return fmt.Errorf("create visits date index: %w", err)
	}

	if seed {
		return SeedEventTypes(ctx, db)
	}
	return nil
}

// SeedEventTypes installs the reference event types, keeping existing rows
func SeedEventTypes(ctx context.Context, db *bun.DB) error {
	eventTypes := append([]models.EventType(nil), models.SeedEventTypes...)
	if _, err := db.NewInsert().
		Model(&eventTypes).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("seed event types: %w", err)
	}
	return nil
}
