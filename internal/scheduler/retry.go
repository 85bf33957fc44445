package scheduler

import (
	"context"

	"inference-scheduler/internal/model"
	"inference-scheduler/internal/queuestore"
)

// RetryPolicy decides, per failed job, whether to re-enqueue it or move it
// to its terminal FAILED state and the dead-letter list. It is shared by
// BatchExecutor and StuckJobRecovery: the retry counter is keyed by job id
// alone, so an in-batch failure and a later recovery-triggered failure draw
// from the same attempt budget.
type RetryPolicy struct {
	store      *queuestore.Store
	repo       Repository
	maxRetries int
}

// NewRetryPolicy builds a policy with the given MAX_RETRIES budget.
func NewRetryPolicy(store *queuestore.Store, repo Repository, maxRetries int) *RetryPolicy {
	return &RetryPolicy{store: store, repo: repo, maxRetries: maxRetries}
}

// Handle processes one failed job: increments its attempt counter, then
// either resets it to QUEUED and re-enqueues, or marks it FAILED and pushes
// it onto the DLQ.
//
// The original system re-enqueues without resetting status, relying on
// stuck-IN_PROGRESS recovery as a safety net if the requeue is lost. This
// resets status to QUEUED before re-enqueuing instead, removing that
// dependency on the recovery path for ordinary retries.
func (p *RetryPolicy) Handle(ctx context.Context, job model.Job) error {
	attempt, err := p.store.IncrRetry(ctx, job.ID)
	if err != nil {
		return err
	}

	if attempt <= p.maxRetries {
		if err := p.repo.SetStatus(job.ID, model.StatusQueued); err != nil {
			return err
		}
		return p.store.Enqueue(ctx, job.ID)
	}

	if err := p.repo.SetStatus(job.ID, model.StatusFailed); err != nil {
		return err
	}
	if err := p.store.PushDLQ(ctx, job.ID); err != nil {
		return err
	}
	return p.store.ClearRetry(ctx, job.ID)
}

// HandleAll applies Handle to every job in failed, collecting (not
// aborting on) the first error so one bad job can't block the rest of the
// batch's retry routing.
func (p *RetryPolicy) HandleAll(ctx context.Context, failed []model.Job) error {
	var firstErr error
	for _, job := range failed {
		if err := p.Handle(ctx, job); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
