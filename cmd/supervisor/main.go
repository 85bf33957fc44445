// Command supervisor runs the Supervisor (C8): it spawns WORKER_COUNT
// copies of the worker binary, restarts any that exit unexpectedly, and
// drives StuckJobRecovery on the RECOVERY_INTERVAL timer until it receives
// SIGTERM/SIGINT, at which point it signals every live worker and waits up
// to 30s before force-killing stragglers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"inference-scheduler/internal/config"
	"inference-scheduler/internal/queuestore"
	"inference-scheduler/internal/repository"
	"inference-scheduler/internal/scheduler"
	"inference-scheduler/internal/supervisor"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger("inference-supervisor", os.Stdout)

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
	retry := scheduler.NewRetryPolicy(store, repo, cfg.MaxRetries)
	recovery := scheduler.NewStuckJobRecovery(repo, retry, logger)

	sup := supervisor.New(cfg.WorkerBin, nil, cfg.WorkerCount, cfg.RecoveryInterval, recovery, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := sup.Run(ctx); err != nil {
		logger.Error(err).LogActivity("supervisor exited with error", nil)
		os.Exit(1)
	}
}
