package scheduler

import (
	"fmt"
	"sync"
	"time"

	"inference-scheduler/internal/model"
)

// fakeRepository is an in-memory stand-in for JobRepository, letting
// BatchExecutor, RetryPolicy and StuckJobRecovery be exercised without a
// database. It tracks enough state (status, result inserts) to assert on
// status-transition and idempotent-insert invariants.
type fakeRepository struct {
	mu      sync.Mutex
	jobs    map[int64]*model.Job
	results map[int64]model.Result

	lockErr   error
	insertErr map[int64]error
}

func newFakeRepository(jobs ...model.Job) *fakeRepository {
	r := &fakeRepository{
		jobs:      make(map[int64]*model.Job),
		results:   make(map[int64]model.Result),
		insertErr: make(map[int64]error),
	}
	for i := range jobs {
		j := jobs[i]
		r.jobs[j.ID] = &j
	}
	return r
}

func (r *fakeRepository) LockAndTransition(ids []int64, from, to model.JobStatus) ([]model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lockErr != nil {
		return nil, r.lockErr
	}
	var won []model.Job
	for _, id := range ids {
		job, ok := r.jobs[id]
		if !ok || job.Status != from {
			continue
		}
		job.Status = to
		job.UpdatedAt = time.Now()
		won = append(won, *job)
	}
	return won, nil
}

func (r *fakeRepository) SetStatus(id int64, status model.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("fake repository: job %d not found", id)
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepository) InsertResult(jobID int64, output model.ScoreMap, topLabel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.insertErr[jobID]; err != nil {
		return err
	}
	if _, exists := r.results[jobID]; exists {
		return nil // idempotent, mirrors the real repository's OnConflict DoNothing
	}
	r.results[jobID] = model.Result{JobID: jobID, Output: output, TopLabel: topLabel, CreatedAt: time.Now()}
	if job, ok := r.jobs[jobID]; ok {
		job.Status = model.StatusCompleted
		job.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeRepository) QueryStuckInProgress(olderThan time.Time) ([]model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Job
	for _, j := range r.jobs {
		if j.Status == model.StatusInProgress && j.UpdatedAt.Before(olderThan) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (r *fakeRepository) QueryStuckQueued(olderThan time.Time) ([]model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Job
	for _, j := range r.jobs {
		if j.Status == model.StatusQueued && j.CreatedAt.Before(olderThan) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (r *fakeRepository) statusOf(id int64) model.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id].Status
}
