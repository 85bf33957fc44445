package scheduler

import (
	"context"

	"github.com/remiges-tech/logharbour/logharbour"

	"inference-scheduler/internal/predictor"
)

// WorkerLoop owns one Predictor instance for the lifetime of a worker
// process and repeatedly collects and executes batches until its context
// is cancelled. There is no concurrency within a worker: one batch runs to
// completion before the next is collected.
type WorkerLoop struct {
	collector *BatchCollector
	executor  *BatchExecutor
	predictor predictor.Predictor
	logger    *logharbour.Logger
}

// NewWorkerLoop wires a worker's collector, executor, and owned predictor.
func NewWorkerLoop(collector *BatchCollector, executor *BatchExecutor, pred predictor.Predictor, logger *logharbour.Logger) *WorkerLoop {
	return &WorkerLoop{collector: collector, executor: executor, predictor: pred, logger: logger}
}

// Run loads the predictor once, then loops collect-and-execute until ctx
// is cancelled. Collection errors (e.g. a transient Redis hiccup) are
// logged and retried rather than treated as fatal.
func (w *WorkerLoop) Run(ctx context.Context) error {
	if err := w.predictor.Load(ctx); err != nil {
		return err
	}
	w.logger.Info().LogActivity("worker loop started", nil)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().LogActivity("worker loop shutting down", nil)
			return nil
		default:
		}

		ids, err := w.collector.Collect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error(err).LogActivity("batch collection failed", nil)
			continue
		}
		if len(ids) == 0 {
			continue
		}

		w.executor.Run(ctx, ids)
	}
}
