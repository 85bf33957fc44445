package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inference-scheduler/internal/model"
)

func TestRetryPolicyReenqueuesWithinBudget(t *testing.T) {
	repo := newFakeRepository(model.Job{ID: 1, Status: model.StatusInProgress, CreatedAt: time.Now(), UpdatedAt: time.Now()})
	store := newTestQueueStore(t)
	ctx := context.Background()

	policy := NewRetryPolicy(store, repo, 3)
	require.NoError(t, policy.Handle(ctx, *repo.jobs[1]))

	require.Equal(t, model.StatusQueued, repo.statusOf(1), "status must reset to QUEUED before re-enqueuing")

	ids, err := store.CollectBatch(ctx, time.Second, 10*time.Millisecond, 8)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)
}

func TestRetryPolicyTerminatesAfterMaxRetries(t *testing.T) {
	repo := newFakeRepository(model.Job{ID: 2, Status: model.StatusInProgress, CreatedAt: time.Now(), UpdatedAt: time.Now()})
	store := newTestQueueStore(t)
	ctx := context.Background()

	policy := NewRetryPolicy(store, repo, 0)
	require.NoError(t, policy.Handle(ctx, *repo.jobs[2]))

	require.Equal(t, model.StatusFailed, repo.statusOf(2), "MAX_RETRIES=0 makes the first failure terminal")

	dlq, err := store.ListDLQ(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, dlq)

	attempt, err := store.IncrRetry(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 1, attempt, "retry counter must have been cleared on the terminal transition")
}

func TestRetryPolicyHandleAllRoutesEveryJob(t *testing.T) {
	repo := newFakeRepository(
		model.Job{ID: 10, Status: model.StatusInProgress, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		model.Job{ID: 11, Status: model.StatusInProgress, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	)
	store := newTestQueueStore(t)
	ctx := context.Background()

	policy := NewRetryPolicy(store, repo, 3)
	err := policy.HandleAll(ctx, []model.Job{*repo.jobs[10], *repo.jobs[11]})
	require.NoError(t, err)

	require.Equal(t, model.StatusQueued, repo.statusOf(10))
	require.Equal(t, model.StatusQueued, repo.statusOf(11))
}

func TestRetryPolicySharesCounterAcrossBatchAndRecovery(t *testing.T) {
	repo := newFakeRepository(model.Job{ID: 20, Status: model.StatusInProgress, CreatedAt: time.Now(), UpdatedAt: time.Now()})
	store := newTestQueueStore(t)
	ctx := context.Background()

	policy := NewRetryPolicy(store, repo, 1)

	// First failure: in-batch path.
	require.NoError(t, policy.Handle(ctx, *repo.jobs[20]))
	require.Equal(t, model.StatusQueued, repo.statusOf(20))

	// Second failure: simulates a recovery-triggered retry on the same job,
	// drawing on the same attempt budget and therefore terminating.
	require.NoError(t, repo.SetStatus(20, model.StatusInProgress))
	require.NoError(t, policy.Handle(ctx, *repo.jobs[20]))
	require.Equal(t, model.StatusFailed, repo.statusOf(20))
}
