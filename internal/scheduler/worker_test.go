package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inference-scheduler/internal/model"
)

type countingPredictor struct {
	fakePredictor
	loads int32
}

func (p *countingPredictor) Load(ctx context.Context) error {
	atomic.AddInt32(&p.loads, 1)
	return nil
}

func TestWorkerLoopLoadsPredictorOnceAndProcessesBatches(t *testing.T) {
	repo := newFakeRepository(model.Job{ID: 1, Status: model.StatusQueued, InputSHA256: "sha1", CreatedAt: time.Now()})
	store := newTestQueueStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, store.StoreImage(ctx, "sha1", []byte("sha1")))
	require.NoError(t, store.Enqueue(ctx, 1))

	retry := NewRetryPolicy(store, repo, 3)
	pred := &countingPredictor{}
	executor := NewBatchExecutor(store, repo, pred, retry, 10*time.Second, testLogger())
	collector := NewBatchCollector(store, 10)
	loop := NewWorkerLoop(collector, executor, pred, testLogger())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, func() bool {
		return repo.statusOf(1) == model.StatusCompleted
	}, time.Second, 5*time.Millisecond)

	cancel()
	// Collect's first-wait is fixed at 5s in production; allow for the
	// worst case where the idle worker is parked inside that blocking pop
	// when cancellation arrives.
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("worker loop did not exit after context cancellation")
	}

	require.EqualValues(t, 1, atomic.LoadInt32(&pred.loads), "predictor must be loaded exactly once per worker")
}

func TestWorkerLoopExitsOnBootError(t *testing.T) {
	repo := newFakeRepository()
	store := newTestQueueStore(t)
	retry := NewRetryPolicy(store, repo, 3)

	pred := &failingLoadPredictor{err: errBoot}
	executor := NewBatchExecutor(store, repo, pred, retry, 10*time.Second, testLogger())
	collector := NewBatchCollector(store, 10)
	loop := NewWorkerLoop(collector, executor, pred, testLogger())

	err := loop.Run(context.Background())
	require.ErrorIs(t, err, errBoot)
}

type failingLoadPredictor struct {
	fakePredictor
	err error
}

func (p *failingLoadPredictor) Load(ctx context.Context) error { return p.err }

var errBoot = errors.New("predictor failed to load")
