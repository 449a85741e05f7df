package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petermazzocco/go-pereval-api/internal/cache"
	"github.com/petermazzocco/go-pereval-api/internal/config"
	"github.com/petermazzocco/go-pereval-api/internal/database"
	"github.com/petermazzocco/go-pereval-api/internal/logger"
	"github.com/petermazzocco/go-pereval-api/internal/server"
	"github.com/petermazzocco/go-pereval-api/internal/storage"
)

func main() {
	// Initialize environment variables
	cfg, envLoaded := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if !envLoaded {
		log.Debug("No .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	db, err := database.Open(cfg.DSN, database.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close(db)

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	deps := server.Deps{
		Store:              database.NewStore(db, log),
		ImageMaxWidth:      cfg.ImageMaxWidth,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Log:                log,
	}

	// Optional activity cache
	if cfg.CacheEnabled() {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("Redis unavailable, activity cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer client.Close()
			deps.ActivityCache = cache.NewActivityCache(client, cfg.ActivityCacheTTL)
		}
	}

	// Optional photo storage
	if cfg.StorageEnabled() {
		r2, err := storage.NewR2(ctx, storage.R2Config{
			AccountID:       cfg.AccountID,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			Bucket:          cfg.BucketName,
			PublicURL:       cfg.PublicURL,
		})
		if err != nil {
			log.Fatal("Failed to configure image storage", "error", err)
		}
		deps.Uploader = r2
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}
	}()

	log.Info("Starting API server", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server failed", "error", err)
	}
	log.Info("Server stopped")
}
