package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esamind/internal/cache"
	"esamind/internal/config"
	"esamind/internal/etsy"
	"esamind/internal/httpserver"
	"esamind/internal/logging"
	"esamind/internal/metrics"
	"esamind/internal/openai"
	"esamind/internal/prompts"
	"esamind/internal/readings"
	"esamind/internal/repo"
	syncer "esamind/internal/sync"
	"esamind/migrations"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.AppEnv)
	logger.Info("starting esamind", "env", cfg.AppEnv, "driver", cfg.DatabaseDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	var repository repo.Repository
	switch cfg.DatabaseDriver {
	case "sqlite":
		repository, err = repo.NewSQLite(ctx, cfg.SQLitePath, logger)
	default:
		repository, err = repo.NewPostgres(ctx, cfg.DatabaseURL, logger)
	}
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repository.Close()

	if err := repository.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	if err := prompts.Seed(ctx, repository, logger); err != nil {
		return fmt.Errorf("seed prompts: %w", err)
	}

	var redisClient *cache.Redis
	if cfg.RedisAddr != "" {
		redisClient = cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		}, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed closing redis", "error", err)
			}
		}()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis ping failed, caching disabled for this run", "error", err)
		}
	}

	etsyClient := etsy.New(etsy.Config{
		BaseURL:         cfg.EtsyBaseURL,
		ClientID:        cfg.EtsyClientID,
		ClientSecret:    cfg.EtsyClientSecret,
		RedirectURI:     cfg.EtsyRedirectURI,
		Timeout:         cfg.EtsyTimeout,
		ListingCacheTTL: cfg.ListingCacheTTL,
	}, logger, metricRegistry, redisClient)

	openaiClient := openai.New(openai.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	}, logger, metricRegistry)

	resolver := prompts.NewResolver(repository, logger)
	generator := readings.NewGenerator(repository, resolver, openaiClient, etsyClient, logger, metricRegistry)
	engine := syncer.NewEngine(repository, etsyClient, generator, logger, metricRegistry, cfg.SyncReceiptLimit)

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, metricRegistry, httpserver.Dependencies{
		Repository:    repository,
		Redis:         redisClient,
		Sync:          engine,
		Readings:      generator,
		StatsCacheTTL: cfg.StatsCacheTTL,
	}, cfg.PublicBasePath)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
