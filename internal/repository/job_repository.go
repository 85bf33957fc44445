// Package repository holds the durable side of the scheduling core: Job and
// Result persistence, status transitions, and the stuck-job queries the
// recovery loop depends on.
package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inference-scheduler/internal/model"
)

// JobRepository provides persistence operations for Job, Result and
// ModelVersion.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository with the given database
// connection.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateJob persists a new Job in QUEUED status.
func (r *JobRepository) CreateJob(modelID int64, sha string) (*model.Job, error) {
	job := model.NewJob(modelID, sha)
	if err := r.db.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// Get finds a job by id. Returns (nil, nil) if it doesn't exist.
func (r *JobRepository) Get(id int64) (*model.Job, error) {
	var job model.Job
	err := r.db.First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindActiveBySHA returns the newest Job with the given input fingerprint
// whose status is not FAILED, or (nil, nil) if none exists.
func (r *JobRepository) FindActiveBySHA(sha string) (*model.Job, error) {
	var job model.Job
	err := r.db.Where("input_sha256 = ? AND status <> ?", sha, model.StatusFailed).
		Order("created_at DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// LockAndTransition attempts to move every id in ids from `from` to `to`,
// returning only the Jobs the caller won the race for. Concurrent callers
// racing on the same id will see at most one of them receive that row back;
// this is the sole defense against double-processing a job when more than
// one worker is running.
//
// The candidate read uses SELECT ... FOR UPDATE SKIP LOCKED (MySQL 8+) so a
// worker never blocks behind another worker already transitioning the same
// row; it simply skips it. The rows it returns stay locked by this
// transaction, so the conditional UPDATE that follows moves exactly those
// candidates, and they are what the caller gets back.
func (r *JobRepository) LockAndTransition(ids []int64, from, to model.JobStatus) ([]model.Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var won []model.Job
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var candidates []model.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("id IN ? AND status = ?", ids, from).
			Find(&candidates).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		candidateIDs := make([]int64, len(candidates))
		for i, c := range candidates {
			candidateIDs[i] = c.ID
		}

		if err := tx.Model(&model.Job{}).
			Where("id IN ? AND status = ?", candidateIDs, from).
			Update("status", to).Error; err != nil {
			return err
		}

		for i := range candidates {
			candidates[i].Status = to
		}
		won = candidates
		return nil
	})
	if err != nil {
		return nil, err
	}
	return won, nil
}

// SetStatus sets a job's status directly, bypassing the from-predicate.
// Used by RetryPolicy to reset a job to QUEUED or mark it FAILED, both for
// in-batch failures and for jobs routed to it by StuckJobRecovery.
func (r *JobRepository) SetStatus(id int64, status model.JobStatus) error {
	return r.db.Model(&model.Job{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()}).Error
}

// InsertResult writes a Result row and marks the owning Job COMPLETED. A
// unique-constraint conflict on job_id (a second worker finishing the same
// job after a first succeeded) is treated as success, not an error.
func (r *JobRepository) InsertResult(jobID int64, output model.ScoreMap, topLabel string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := model.Result{JobID: jobID, Output: output, TopLabel: topLabel}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&result).Error; err != nil {
			return err
		}
		return tx.Model(&model.Job{}).Where("id = ?", jobID).
			Updates(map[string]any{"status": model.StatusCompleted, "updated_at": time.Now()}).Error
	})
}

// QueryStuckInProgress returns IN_PROGRESS jobs whose updated_at predates
// the given threshold — a worker crashed mid-inference.
func (r *JobRepository) QueryStuckInProgress(olderThan time.Time) ([]model.Job, error) {
	var jobs []model.Job
	err := r.db.Where("status = ? AND updated_at < ?", model.StatusInProgress, olderThan).
		Find(&jobs).Error
	return jobs, err
}

// QueryStuckQueued returns QUEUED jobs whose created_at predates the given
// threshold — the submit path crashed before enqueueing, or the queue was
// drained without the job being picked up.
func (r *JobRepository) QueryStuckQueued(olderThan time.Time) ([]model.Job, error) {
	var jobs []model.Job
	err := r.db.Where("status = ? AND created_at < ?", model.StatusQueued, olderThan).
		Find(&jobs).Error
	return jobs, err
}

// LatestModel returns the most recently seeded ModelVersion, or (nil, nil)
// if none has been seeded yet.
func (r *JobRepository) LatestModel() (*model.ModelVersion, error) {
	var mv model.ModelVersion
	err := r.db.Order("created_at DESC").First(&mv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

// GetResult returns the Result for a job, or (nil, nil) if none exists yet.
func (r *JobRepository) GetResult(jobID int64) (*model.Result, error) {
	var res model.Result
	err := r.db.First(&res, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Ping checks the database connection is alive, used by the health
// endpoint.
func (r *JobRepository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
