package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/storemigrate/internal/config"
	"github.com/JonMunkholm/storemigrate/internal/core"
	_ "github.com/JonMunkholm/storemigrate/internal/core/platforms" // Register alias tables
	"github.com/JonMunkholm/storemigrate/internal/database"
	"github.com/JonMunkholm/storemigrate/internal/extractor"
	"github.com/JonMunkholm/storemigrate/internal/logging"
	"github.com/JonMunkholm/storemigrate/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"extractor_url", cfg.Extractor.URL,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if err := database.Migrate(ctx, pool); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// Extraction client, cached in redis when configured
	var cache extractor.Cache
	if cfg.Cache.RedisURL != "" {
		rc, err := extractor.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.Prefix)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		cache = rc
		slog.Info("extraction cache", "backend", "redis", "ttl", cfg.Cache.TTL.String())
	} else {
		cache = extractor.NewMemoryCache()
		slog.Info("extraction cache", "backend", "memory", "ttl", cfg.Cache.TTL.String())
	}
	defer cache.Close()

	client := extractor.New(extractor.Config{
		URL:               cfg.Extractor.URL,
		APIKey:            cfg.Extractor.APIKey,
		Timeout:           cfg.Extractor.Timeout,
		RequestsPerSecond: cfg.Extractor.RequestsPerSecond,
		Burst:             cfg.Extractor.Burst,
		MaxRetries:        cfg.Extractor.MaxRetries,
		RetryBaseDelay:    cfg.Extractor.RetryBaseDelay,
	})

	core.ImportTimeout = cfg.Upload.Timeout

	store := core.NewPgStore(pool)
	service := core.NewService(
		core.Stores{Jobs: store, Catalog: store, Content: store},
		extractor.NewCachedExtractor(client, cache, cfg.Cache.TTL),
		core.ServiceOptions{
			MaxFileSize:          cfg.Upload.MaxFileSize,
			MaxConcurrentImports: cfg.Upload.MaxConcurrent,
			ImportWaitTime:       cfg.Upload.MaxWaitTime,
			WaitTime:             cfg.Extractor.WaitTime,
			Stage: core.StageConfig{
				ChunkSize:        cfg.Import.ChunkSize,
				ChunkConcurrency: cfg.Import.ChunkConcurrency,
				MaxMenuDepth:     cfg.Import.MaxMenuDepth,
			},
		},
	)

	slog.Info("platforms registered", "platforms", core.AliasPlatforms(), "alias_tables", core.AliasTableCount())

	server := web.NewServer(service, cfg, store)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartStaleStageSweeper(jobCtx, core.SweepConfig{
		StaleAfter:    cfg.Import.StaleStageAfter,
		CheckInterval: cfg.Import.SweepInterval,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		status := service.Limiter().Status()
		slog.Info("waiting for imports and runs to finish",
			"imports", status.Active,
			"runs", len(service.ActiveJobs()),
		)
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("work did not finish in time", "error", err)
		} else {
			slog.Info("all work finished")
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
