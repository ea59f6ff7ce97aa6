package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/superio007/futureblink-backend/internal/api/ai"
	"github.com/superio007/futureblink-backend/internal/api/cache"
	"github.com/superio007/futureblink-backend/internal/api/handlers"
	"github.com/superio007/futureblink-backend/internal/api/ratelimit"
	"github.com/superio007/futureblink-backend/internal/shared/config"
	"github.com/superio007/futureblink-backend/internal/shared/database"
	"github.com/superio007/futureblink-backend/internal/shared/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence gateway. Connects in the background; the service serves
	// degraded until (and unless) the connection comes up.
	db := database.Open(database.Config{
		URL:             cfg.DatabaseURL,
		WriteTimeout:    cfg.DBWriteTimeout,
		ConnectAttempts: cfg.DBConnectAttempts,
		ConnectDelay:    cfg.DBConnectDelay,
	}, logger)
	defer db.Close()

	// Completion client. A missing API key is reported per request, not here.
	completer, err := ai.New(ai.Config{
		APIKey:   cfg.OpenRouterAPIKey,
		Model:    cfg.AIModel,
		Timeout:  cfg.AITimeout,
		SiteURL:  cfg.SiteURL,
		SiteName: cfg.SiteName,
	})
	if err != nil {
		logger.Error("failed to initialize AI client", "error", err)
		os.Exit(1)
	}
	logger.Info("initialized AI client", "model", completer.Model())

	// Optional completion cache.
	var responseCache handlers.ResponseCache
	if cfg.CacheEnabled && cfg.RedisURL != "" {
		redisClient, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			responseCache = cache.New(redisClient, time.Duration(cfg.CacheTTLSeconds)*time.Second)
			logger.Info("initialized response cache", "ttl_seconds", cfg.CacheTTLSeconds)
		}
	}

	limiter := ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitMax)
	limiter.Start()
	defer limiter.Stop()

	handler := handlers.NewHandler(completer, db, responseCache, limiter, logger, handlers.Options{
		Dev:        cfg.IsDevelopment(),
		TrustProxy: cfg.TrustProxy,
	})
	middleware := handlers.NewMiddleware(logger, cfg.RequestTimeout)
	router := handlers.NewRouter(handler, middleware)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
