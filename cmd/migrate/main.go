package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"museum-visits/internal/config"
	"museum-visits/internal/database"
	"museum-visits/internal/database/migrations"
	"museum-visits/internal/logger"
)

func main() {
	action := flag.String("action", "up", "migration action: up, down, to, version")
	version := flag.Uint("version", 0, "target version for -action=to")
	seed := flag.Bool("seed", true, "include seed data migrations")
	flag.Parse()

	log := logger.NewLoggerWithWriter(os.Stdout)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Failed to load configuration: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	if cfg.Database.Driver == config.DriverSQLite {
		migrateSQLite(cfg, *action, *seed, log)
		return
	}

	runner := migrations.NewRunner(cfg.Database.DSN, migrations.MigrateOptions{SeedData: *seed}, log)
	defer runner.Close()

	switch *action {
	case "up":
		if *seed {
			err = runner.MigrateUp()
		} else {
			err = runner.MigrateTo(migrations.SchemaVersion)
		}
	case "down":
		err = runner.MigrateDown()
	case "to":
		err = runner.MigrateTo(*version)
	case "version":
	default:
		log.Fatal("DATABASE", fmt.Sprintf("Unknown action %q", *action))
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration %s failed: %v", *action, err))
	}

	current, dirty, err := runner.Version()
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to read migration version: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Schema version %d (dirty: %t)", current, dirty))
}

// migrateSQLite only supports bringing the schema up; SQLite databases are
// built from the models rather than from versioned SQL.
func migrateSQLite(cfg *config.Config, action string, seed bool, log *logger.Logger) {
	if action != "up" {
		log.Fatal("DATABASE", fmt.Sprintf("Action %q is only supported on postgres", action))
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	if err := database.Bootstrap(ctx, db, seed); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to bootstrap schema: %v", err))
	}
	log.LogDatabase("BOOTSTRAP", "visits", "✅ SQLite schema ready")
}
