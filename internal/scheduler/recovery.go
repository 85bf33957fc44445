package scheduler

import (
	"context"
	"time"

	"github.com/remiges-tech/logharbour/logharbour"
)

const (
	stuckInProgressAge = 10 * time.Minute
	stuckQueuedAge      = 5 * time.Minute
)

// StuckJobRecovery scans for jobs that stalled either mid-execution (a
// worker died holding IN_PROGRESS) or before any worker ever picked them up
// (a queue entry was lost without a corresponding row update), and routes
// both through RetryPolicy so they draw on the same attempt budget as an
// ordinary inference failure.
type StuckJobRecovery struct {
	repo   Repository
	retry  *RetryPolicy
	logger *logharbour.Logger
}

// NewStuckJobRecovery builds a recovery scanner.
func NewStuckJobRecovery(repo Repository, retry *RetryPolicy, logger *logharbour.Logger) *StuckJobRecovery {
	return &StuckJobRecovery{repo: repo, retry: retry, logger: logger}
}

// Run performs one recovery pass. It is meant to be invoked by Supervisor
// on a RECOVERY_INTERVAL timer, independent of any worker's lifetime.
func (r *StuckJobRecovery) Run(ctx context.Context) error {
	now := time.Now()

	// Both scans are taken before any job is handled, so a stuck IN_PROGRESS
	// job reset to QUEUED below is not picked up again by the queued scan.
	stuckInProgress, err := r.repo.QueryStuckInProgress(now.Add(-stuckInProgressAge))
	if err != nil {
		return err
	}
	stuckQueued, err := r.repo.QueryStuckQueued(now.Add(-stuckQueuedAge))
	if err != nil {
		return err
	}

	if len(stuckInProgress) > 0 {
		r.logger.Warn().LogActivity("recovering stuck in-progress jobs", map[string]any{"count": len(stuckInProgress)})
		if err := r.retry.HandleAll(ctx, stuckInProgress); err != nil {
			r.logger.Error(err).LogActivity("stuck in-progress recovery failed", nil)
		}
	}

	if len(stuckQueued) > 0 {
		r.logger.Warn().LogActivity("recovering stuck queued jobs", map[string]any{"count": len(stuckQueued)})
		if err := r.retry.HandleAll(ctx, stuckQueued); err != nil {
			r.logger.Error(err).LogActivity("stuck queued recovery failed", nil)
		}
	}

	return nil
}
