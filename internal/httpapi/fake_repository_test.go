package httpapi

import (
	"sync"
	"time"

	"inference-scheduler/internal/model"
)

// fakeRepository is an in-memory stand-in for repository.JobRepository,
// letting the HTTP surface be exercised without a database.
type fakeRepository struct {
	mu        sync.Mutex
	nextID    int64
	jobs      map[int64]*model.Job
	results   map[int64]model.Result
	modelVer  *model.ModelVersion
	pingErr   error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		jobs:    make(map[int64]*model.Job),
		results: make(map[int64]model.Result),
	}
}

func (r *fakeRepository) CreateJob(modelID int64, sha string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	job := &model.Job{
		ID:          r.nextID,
		ModelID:     modelID,
		Status:      model.StatusQueued,
		InputSHA256: sha,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.jobs[job.ID] = job
	return job, nil
}

func (r *fakeRepository) Get(id int64) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (r *fakeRepository) FindActiveBySHA(sha string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *model.Job
	for _, j := range r.jobs {
		if j.InputSHA256 != sha || j.Status == model.StatusFailed {
			continue
		}
		if best == nil || j.CreatedAt.After(best.CreatedAt) {
			best = j
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeRepository) LatestModel() (*model.ModelVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modelVer, nil
}

func (r *fakeRepository) GetResult(jobID int64) (*model.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[jobID]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *fakeRepository) Ping() error {
	return r.pingErr
}

// completeJob marks a job COMPLETED and attaches a Result, simulating what
// BatchExecutor would have done.
func (r *fakeRepository) completeJob(id int64, topLabel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].Status = model.StatusCompleted
	r.results[id] = model.Result{JobID: id, TopLabel: topLabel, Output: model.ScoreMap{topLabel: 1}, CreatedAt: time.Now()}
}
