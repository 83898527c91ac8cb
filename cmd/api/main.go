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

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/server"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func gracefulShutdown(apiServer *server.Server, log *zap.Logger, done chan<- struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := apiServer.Close(); err != nil {
		log.Error("Error closing server resources", zap.Error(err))
	}

	close(done)
}

func main() {
	migrateOnly := pflag.Bool("migrate-only", false, "apply pending migrations and exit")
	migrateStatus := pflag.Bool("migrate-status", false, "print migration status and exit")
	skipMigrations := pflag.Bool("skip-migrations", false, "start without applying migrations")
	pflag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dbService, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	switch {
	case *migrateStatus:
		if err := database.MigrationStatus(dbService.DB(), cfg.Server.MigrationsDir); err != nil {
			log.Fatal("Failed to read migration status", zap.Error(err))
		}
		return
	case !*skipMigrations:
		if err := database.RunMigrations(dbService.DB(), cfg.Server.MigrationsDir, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}
	if *migrateOnly {
		_ = dbService.Close()
		return
	}

	srv := server.NewServer(cfg, log, dbService)

	done := make(chan struct{})
	go gracefulShutdown(srv, log, done)

	log.Info("Starting storefront catalog API",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", srv.Addr),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
