package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/openboard/auth-api/config"
	"github.com/openboard/auth-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger := bootstrap.InitLogger(cfg.Debug)
	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	logStartupInfo(ctx, logger, &cfg)

	if !cfg.Directory.Enabled() {
		return errors.New("directory database is not configured; the allow-list gate cannot run")
	}

	db, directoryDB, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(ctx, logger, "database", db.Close)
	defer closeQuietly(ctx, logger, "directory database", directoryDB.Close)
	defer closeQuietly(ctx, logger, "redis", redisClient.Close)

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	loginService, err := bootstrap.BuildLoginService(bootstrap.LoginServiceConfig{
		AppConfig:   cfg,
		DB:          db,
		DirectoryDB: directoryDB,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build login service: %w", err)
	}

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		Config: &cfg,
		Auth:   loginService,
		Logger: logger,
	})

	// Block until a shutdown signal arrives.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	return bootstrap.ShutdownHTTPServer(ctx, server, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting boardauth service",
		"db_host", cfg.Postgres.Host,
		"db_port", cfg.Postgres.Port,
		"db_name", cfg.Postgres.Name,
		"directory_db", cfg.Directory.Database,
		"http_addr", cfg.HTTP.Addr)
}

// initInfrastructure connects shared dependencies used by the service runtime.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, *sql.DB, redis.UniversalClient, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect db: %w", err)
	}

	directoryDB, err := bootstrap.ConnectDirectoryDB(cfg.Directory, logger)
	if err != nil {
		closeQuietly(ctx, logger, "database", db.Close)
		return nil, nil, nil, fmt.Errorf("connect directory db: %w", err)
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		closeQuietly(ctx, logger, "database", db.Close)
		closeQuietly(ctx, logger, "directory database", directoryDB.Close)
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	return db, directoryDB, redisClient, nil
}

func closeQuietly(ctx context.Context, logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.ErrorContext(ctx, "close "+name+" failed", "error", err)
	}
}
