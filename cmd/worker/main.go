// Command worker runs a single WorkerLoop (C7) to completion: load the
// predictor once, then collect-and-execute batches until signalled to stop.
// It is a standalone process by design so the Supervisor can spawn it
// without sharing model memory across workers, and so a crashed worker
// leaves nothing but a dropped OS process behind.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"inference-scheduler/internal/config"
	"inference-scheduler/internal/predictor"
	"inference-scheduler/internal/queuestore"
	"inference-scheduler/internal/repository"
	"inference-scheduler/internal/scheduler"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger("inference-worker", os.Stdout)

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

	var pred predictor.Predictor
	if cfg.PredictorURL != "" {
		pred = predictor.NewHTTPPredictor(cfg.PredictorURL, &http.Client{Timeout: cfg.InferenceTimeout * 8})
	} else {
		pred = predictor.NewStubPredictor()
	}

	retry := scheduler.NewRetryPolicy(store, repo, cfg.MaxRetries)
	collector := scheduler.NewBatchCollector(store, cfg.BatchWindowMS)
	executor := scheduler.NewBatchExecutor(store, repo, pred, retry, cfg.InferenceTimeout, logger)
	loop := scheduler.NewWorkerLoop(collector, executor, pred, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := loop.Run(ctx); err != nil {
		logger.Error(err).LogActivity("worker loop exited with error", nil)
		os.Exit(1)
	}
}
