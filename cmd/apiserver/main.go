// Command apiserver runs the HTTP surface: job submission, polling, result
// retrieval, and the /v1/ops/* operational endpoints. It is an independent
// process from the worker pool, coordinating with it only through the
// shared MySQL database and Redis instance.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"inference-scheduler/internal/apierr"
	"inference-scheduler/internal/config"
	"inference-scheduler/internal/httpapi"
	"inference-scheduler/internal/metrics"
	"inference-scheduler/internal/queuestore"
	"inference-scheduler/internal/ratelimit"
	"inference-scheduler/internal/repository"
)

const (
	rateLimitMaxRequests   = 60
	rateLimitWindowSeconds = 60
	shutdownTimeout        = 10 * time.Second
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger("inference-api", os.Stdout)

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Error(err).LogActivity("failed to construct redis client", nil)
		os.Exit(1)
	}
	db, err := config.NewDB(cfg)
	if err != nil {
		logger.Error(err).LogActivity("failed to connect to database", nil)
		os.Exit(1)
	}

	store := queuestore.New(rdb)
	repo := repository.NewJobRepository(db)
	limiter := ratelimit.New(rdb, rateLimitMaxRequests, rateLimitWindowSeconds)
	metricsCollector := metrics.NewCollector(db)
	handlers := httpapi.New(repo, store, limiter, metricsCollector, logger)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), apierr.ErrorHandlerMiddleware())
	handlers.RegisterRoutes(engine.Group("/v1"))

	srv := &http.Server{
		Addr:    ":" + getEnv("PORT", "8080"),
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		logger.Info().LogActivity("api server listening", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(err).LogActivity("api server exited with error", nil)
		}
	}()

	<-ctx.Done()
	logger.Info().LogActivity("api server shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err).LogActivity("api server graceful shutdown failed", nil)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
