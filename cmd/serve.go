package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	httpadapter "github.com/jupiterclapton/cenackle/services/blog-service/internal/adapters/primary/http"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/adapters/primary/jobs"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/adapters/secondary/cache"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/adapters/secondary/security"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/services"
	"github.com/jupiterclapton/cenackle/services/blog-service/pkg/telemetry"
)

func serve(c *cli.Context) error {
	// 1. Config
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	slog.Info("🚀 Starting Blog Service", "env", cfg.Env, "port", cfg.HTTPPort)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	var cleanup closers
	defer func() { cleanup.close() }()

	// 2. Télémétrie (Tracing)
	tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OtelEndpoint, cfg.Env)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		cleanup = append(cleanup, func() { _ = tp.Shutdown(context.Background()) })
	}

	// 3. Infrastructure
	if c.Bool("migrate") {
		if err := repository.Migrate(ctx, cfg.DBUrl); err != nil {
			return err
		}
	}

	pool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, pool.Close)

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, func() { _ = rdb.Close() })

	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, func() { _ = driver.Close(context.Background()) })

	nc, js, err := connectNats(ctx, cfg)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, nc.Close)

	s3, err := connectStorage(ctx, cfg)
	if err != nil {
		return err
	}

	jwtProvider, err := security.NewJWTProviderFromFiles(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
	if err != nil {
		return err
	}

	// 4. Adapters (Driven)
	userRepo := repository.NewUserRepo(pool)
	storyRepo := repository.NewStoryRepo(pool)
	postRepo := repository.NewPostRepo(pool)

	neo4jRepo := repository.NewNeo4jRepo(driver)
	if err := neo4jRepo.EnsureSchema(ctx); err != nil {
		slog.Warn("Schema init failed (might be fine if already exists)", "error", err)
	}
	graphRepo := cache.NewGraphCache(neo4jRepo, rdb, cfg.FollowCacheTTL)

	publisher := eventbroker.NewNatsPublisher(js)

	// 5. Core
	svc := httpadapter.Services{
		Identity: services.NewIdentityService(userRepo, security.NewArgon2Hasher(nil), jwtProvider, s3, publisher),
		Stories:  services.NewStoryService(storyRepo, s3, publisher),
		Feed:     services.NewFeedService(userRepo, graphRepo, storyRepo, postRepo),
		Posts:    services.NewPostService(postRepo, userRepo, s3, publisher),
		Graph:    services.NewGraphService(graphRepo, userRepo, publisher),
	}

	// 6. Job de purge (optionnel, le feed filtre déjà les stories expirées)
	if cfg.PurgeEnabled {
		purger := jobs.NewStoryPurger(ctx, storyRepo, s3, cfg.PurgeSpec, cfg.StoryRetention, slog.Default())
		if err := purger.Start(); err != nil {
			return err
		}
		cleanup = append(cleanup, purger.Stop)
	}

	// 7. Primary Adapter (HTTP)
	prefs := httpadapter.NewPreferencesStore([]byte(cfg.SessionSecret), !cfg.IsLocal())
	server := httpadapter.NewServer(svc, prefs, cfg.AllowedOrigins)

	srvHTTP := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("📡 Blog Service listening", "port", cfg.HTTPPort)
		if err := srvHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	slog.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("👋 Server exited")
	return nil
}

func migrateCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return repository.Migrate(c.Context, cfg.DBUrl)
}

// purgeCmd : passage unique, pratique en CronJob k8s quand STORY_PURGE=false
func purgeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	pool, err := connectPostgres(c.Context, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	s3, err := connectStorage(c.Context, cfg)
	if err != nil {
		return err
	}

	purger := jobs.NewStoryPurger(c.Context, repository.NewStoryRepo(pool), s3, cfg.PurgeSpec, cfg.StoryRetention, slog.Default())
	n, err := purger.RunOnce(c.Context)
	if err != nil {
		return err
	}
	slog.Info("🧹 Purge done", "deleted", n)
	return nil
}
