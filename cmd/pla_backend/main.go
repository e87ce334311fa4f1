package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/clients/rates"
	portssvc "github.com/SscSPs/personal_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/personal_ledger_app/internal/core/services"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/SscSPs/personal_ledger_app/internal/handlers"
	"github.com/SscSPs/personal_ledger_app/internal/middleware"
	"github.com/SscSPs/personal_ledger_app/internal/platform/config"
	"github.com/SscSPs/personal_ledger_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/personal_ledger_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	rateProvider := rates.NewClient(cfg.RateProviderURL, cfg.RateFetchTimeout)
	serviceContainer := services.NewServiceContainer(repos, rateProvider, services.ContainerConfig{
		DefaultCurrency: cfg.DefaultCurrency,
		RateFreshness:   cfg.RateFreshness,
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	dto.RegisterValidations()

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	ipLimiter := limiter.New(memory.NewStore(), limiter.Rate{
		Period: time.Minute,
		Limit:  cfg.RateLimitPerMinute,
	})
	r.Use(middleware.RateLimit(ipLimiter))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, &serviceContainer)

	// Root context cancelled on SIGINT/SIGTERM; stops the rebuild worker and
	// triggers the HTTP shutdown.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go runRebuildWorker(rootCtx, logger, serviceContainer.Rebuild, cfg.RebuildInterval, workerDone)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}

	<-workerDone
	logger.Info("Shutdown complete.")
}

// runMigrations applies all pending up migrations over a temporary
// database/sql connection using the pgx stdlib driver.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// runRebuildWorker flushes the running-balance rebuild queue whenever an
// enqueue signals, with a ticker as backstop for retried failures.
func runRebuildWorker(ctx context.Context, logger *slog.Logger, rebuildSvc portssvc.RebuildSvcFacade, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	workerLogger := logger.With(slog.String("component", "rebuild_worker"))
	workerCtx := middleware.ContextWithLogger(ctx, workerLogger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	flush := func() {
		if rebuildSvc.Len() == 0 {
			return
		}
		if err := rebuildSvc.Flush(workerCtx); err != nil {
			workerLogger.Error("Rebuild flush failed", slog.String("error", err.Error()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			// Final drain so enqueued corrections are not lost on shutdown.
			drainCtx, cancel := context.WithTimeout(middleware.ContextWithLogger(context.Background(), workerLogger), 10*time.Second)
			if rebuildSvc.Len() > 0 {
				if err := rebuildSvc.Flush(drainCtx); err != nil {
					workerLogger.Error("Final rebuild flush failed", slog.String("error", err.Error()))
				}
			}
			cancel()
			return
		case <-rebuildSvc.Signal():
			flush()
		case <-ticker.C:
			flush()
		}
	}
}
