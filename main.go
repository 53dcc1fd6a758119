package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"museum-visits/internal/config"
	"museum-visits/internal/database"
	"museum-visits/internal/database/migrations"
	"museum-visits/internal/export"
	"museum-visits/internal/kafka"
	"museum-visits/internal/logger"
	"museum-visits/internal/middleware"
	"museum-visits/internal/reports"
	"museum-visits/internal/reports/report_api"
	"museum-visits/internal/utils"
	"museum-visits/internal/visits"
	visitdb "museum-visits/internal/visits/db"
	"museum-visits/internal/visits/visit_api"
)

func main() {
	bootLog := logger.NewLoggerWithWriter(os.Stdout)
	if err := godotenv.Load(); err != nil {
		bootLog.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		bootLog.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("CONFIG", fmt.Sprintf("Failed to load configuration: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal("CONFIG", err.Error())
	}

	log, err := logger.New(logger.Options{
		Dir:        cfg.Log.Dir,
		FilePrefix: "museum-visits",
		MinLevel:   logger.ParseLevel(cfg.Log.Level),
	})
	if err != nil {
		bootLog.Warn("CONFIG", fmt.Sprintf("File logging disabled: %v", err))
		log = bootLog
	}
	defer log.Close()

	log.Info("APP", "Starting museum visits service")

	if err := run(cfg, log); err != nil {
		log.Fatal("APP", err.Error())
	}
	log.Info("APP", "✅ Shutdown complete")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load reports timezone: %w", err)
	}

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer bunDB.Close()

	if err := prepareSchema(ctx, cfg, bunDB, log); err != nil {
		return err
	}

	store := visitdb.New(bunDB)
	reportService := reports.NewService(store, loc)
	reportService.MaxCount = cfg.Reports.MaxCount
	visitService := visits.NewVisitService(store, log, loc)

	var cache *reports.RedisCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("REDIS", fmt.Sprintf("Redis unreachable at %s, report caching disabled: %v", cfg.Redis.Addr, err))
		} else {
			cache = reports.NewRedisCache(redisClient, cfg.Redis.TTL, log)
			reportService.WithCache(cache)
			visitService.Cache = cache
			log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, cfg.Redis.DB))
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}

		instanceID := uuid.NewString()
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		producer.Source = instanceID
		defer producer.Close()
		visitService.Publisher = producer
		log.Info("KAFKA", "Kafka producer initialized successfully")

		if cache != nil {
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, log)
			defer consumer.Close()
			g.Go(func() error {
				return consumer.Start(gctx, kafka.InvalidateForeignChanges(instanceID, cache, log))
			})
		}
	}

	router := newRouter(cfg, log, reportService, visitService)
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		log.Info("HTTP", fmt.Sprintf("🚀 Museum visits service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// prepareSchema bootstraps SQLite from the models and runs the embedded
// migrations on postgres.
func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) error {
	if !cfg.Database.AutoMigrate {
		log.Info("DATABASE", "Auto-migrate disabled, skipping schema setup")
		return nil
	}

	if cfg.Database.Driver == config.DriverSQLite {
		if err := database.Bootstrap(ctx, bunDB, cfg.Database.SeedData); err != nil {
			return fmt.Errorf("bootstrap sqlite schema: %w", err)
		}
		log.LogDatabase("BOOTSTRAP", "visits", "schema ready")
		return nil
	}

	runner := migrations.NewRunner(cfg.Database.DSN, migrations.MigrateOptions{
		AutoMigrate: cfg.Database.AutoMigrate,
		SeedData:    cfg.Database.SeedData,
	}, log)
	defer runner.Close()

	if err := runner.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.LogDatabase("MIGRATE", "visits", "schema ready")
	return nil
}

func newRouter(cfg *config.Config, log *logger.Logger, reportService *reports.Service, visitService *visits.VisitService) http.Handler {
	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSONResponse(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	reportHandler := report_api.NewHandler(reportService, log)
	reportHandler.DefaultCount = cfg.Reports.DefaultCount
	reportHandler.RegisterRoutes(r)
	log.Info("ROUTER", "Report routes registered under /summary and /chart")

	visitHandler := visit_api.NewHandler(visitService, log, export.Options{Quote: cfg.Export.QuoteFields}, cfg.Export.FilenamePrefix)
	visitHandler.RegisterRoutes(r)
	log.Info("ROUTER", "Visit routes registered under /visits and /event-types")

	return r
}
