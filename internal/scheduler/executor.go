package scheduler

import (
	"context"
	"time"

	"github.com/remiges-tech/logharbour/logharbour"

	"inference-scheduler/internal/model"
	"inference-scheduler/internal/predictor"
	"inference-scheduler/internal/queuestore"
)

// BatchExecutor drives one batch of job ids from lock through persistence,
// never letting a single bad job or a failed forward pass propagate an
// error out of Run — every failure path is routed to RetryPolicy instead.
type BatchExecutor struct {
	store      *queuestore.Store
	repo       Repository
	predictor  predictor.Predictor
	retry      *RetryPolicy
	perJobTime time.Duration
	logger     *logharbour.Logger
}

// NewBatchExecutor wires the executor's dependencies.
func NewBatchExecutor(store *queuestore.Store, repo Repository, pred predictor.Predictor, retry *RetryPolicy, perJobTimeout time.Duration, logger *logharbour.Logger) *BatchExecutor {
	return &BatchExecutor{
		store:      store,
		repo:       repo,
		predictor:  pred,
		retry:      retry,
		perJobTime: perJobTimeout,
		logger:     logger,
	}
}

// Run processes one batch of job ids end to end.
func (e *BatchExecutor) Run(ctx context.Context, ids []int64) {
	locked, err := e.repo.LockAndTransition(ids, model.StatusQueued, model.StatusInProgress)
	if err != nil {
		e.logger.Error(err).LogActivity("lock_and_transition failed", map[string]any{"batch_size": len(ids)})
		return
	}
	if len(locked) == 0 {
		return
	}

	var failed []model.Job
	type surviving struct {
		job   model.Job
		input predictor.Input
	}
	var candidates []surviving

	for _, job := range locked {
		data, err := e.store.FetchImage(ctx, job.InputSHA256)
		if err != nil {
			e.logger.Error(err).LogActivity("fetch_image failed", map[string]any{"job_id": job.ID})
			failed = append(failed, job)
			continue
		}
		if data == nil {
			failed = append(failed, job)
			continue
		}

		input, err := e.predictor.Preprocess(data)
		if err != nil {
			e.logger.Warn().LogActivity("preprocess_failed", map[string]any{"job_id": job.ID, "error": err.Error()})
			failed = append(failed, job)
			continue
		}
		candidates = append(candidates, surviving{job: job, input: input})
	}

	if len(candidates) > 0 {
		deadline := predictor.Deadline(e.perJobTime, len(candidates))
		batchCtx, cancel := context.WithTimeout(ctx, deadline)

		inputs := make([]predictor.Input, len(candidates))
		for i, c := range candidates {
			inputs[i] = c.input
		}

		scores, err := e.predictor.PredictBatch(batchCtx, inputs)
		cancel()

		if err != nil {
			e.logger.Error(err).LogActivity("predict_batch failed", map[string]any{"batch_size": len(candidates)})
			for _, c := range candidates {
				failed = append(failed, c.job)
			}
		} else {
			for i, c := range candidates {
				topLabel := scores[i].ArgMax()
				if err := e.repo.InsertResult(c.job.ID, scores[i], topLabel); err != nil {
					e.logger.Error(err).LogActivity("insert_result failed", map[string]any{"job_id": c.job.ID})
					failed = append(failed, c.job)
				}
			}
		}
	}

	if len(failed) > 0 {
		if err := e.retry.HandleAll(ctx, failed); err != nil {
			e.logger.Error(err).LogActivity("retry routing failed", map[string]any{"failed_count": len(failed)})
		}
	}
}
