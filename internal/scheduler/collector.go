// Package scheduler drives one worker's main loop: collecting a batch of
// queued jobs, executing inference over them, and routing failures through
// the shared retry policy. It also carries the stuck-job recovery scan that
// the Supervisor runs on a timer.
package scheduler

import (
	"context"
	"time"

	"inference-scheduler/internal/queuestore"
)

const (
	collectorFirstWait = 5 * time.Second
	collectorMaxSize   = 8
)

// BatchCollector is a thin, fixed-configuration wrapper over
// QueueStore.CollectBatch.
type BatchCollector struct {
	store  *queuestore.Store
	window time.Duration
}

// NewBatchCollector builds a collector with the given micro-batching
// window (BATCH_WINDOW_MS).
func NewBatchCollector(store *queuestore.Store, windowMS int) *BatchCollector {
	return &BatchCollector{store: store, window: time.Duration(windowMS) * time.Millisecond}
}

// Collect blocks up to 5s for the first job, then drains up to 7 more (8
// in all) within the configured window, preserving arrival order.
func (b *BatchCollector) Collect(ctx context.Context) ([]int64, error) {
	return b.collectWithFirstWait(ctx, collectorFirstWait)
}

// collectWithFirstWait is Collect with an overridable first-wait,
// so tests aren't bound to the production 5s default.
func (b *BatchCollector) collectWithFirstWait(ctx context.Context, firstWait time.Duration) ([]int64, error) {
	return b.store.CollectBatch(ctx, firstWait, b.window, collectorMaxSize)
}
