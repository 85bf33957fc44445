package scheduler

import (
	"time"

	"inference-scheduler/internal/model"
)

// Repository is the subset of JobRepository the scheduling core depends
// on. Declaring it here, at the point of use, lets BatchExecutor,
// RetryPolicy and StuckJobRecovery be exercised against a fake in tests
// without a database — *repository.JobRepository satisfies it structurally,
// no adapter needed.
type Repository interface {
	LockAndTransition(ids []int64, from, to model.JobStatus) ([]model.Job, error)
	SetStatus(id int64, status model.JobStatus) error
	InsertResult(jobID int64, output model.ScoreMap, topLabel string) error
	QueryStuckInProgress(olderThan time.Time) ([]model.Job, error)
	QueryStuckQueued(olderThan time.Time) ([]model.Job, error)
}
