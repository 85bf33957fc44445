package model

import (
	"time"

	"gorm.io/gorm"
)

// Job is one inference request from submission to terminal status.
//
// input_sha256 is the SHA-256 fingerprint of the submitted image bytes and
// may repeat across Jobs: the same image can be legitimately resubmitted
// after a FAILED terminal state, or once the dedup cache TTL has expired.
// No uniqueness constraint is placed on it for that reason.
type Job struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	ModelID     int64      `json:"modelId" gorm:"column:model_id;not null;index:idx_jobs_model_id"`
	Status      JobStatus  `json:"status" gorm:"column:status;not null;size:20;index:idx_jobs_status_created_at"`
	InputSHA256 string     `json:"inputSha256" gorm:"column:input_sha256;not null;size:64;index:idx_jobs_input_sha256"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime;index:idx_jobs_status_created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName specifies the database table name for the Job model.
func (Job) TableName() string {
	return "inference_jobs"
}

// BeforeCreate sets the initial status when one isn't already set.
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.Status == "" {
		j.Status = StatusQueued
	}
	return nil
}

// NewJob builds a Job ready for persistence in QUEUED status.
func NewJob(modelID int64, sha string) *Job {
	return &Job{
		ModelID:     modelID,
		Status:      StatusQueued,
		InputSHA256: sha,
	}
}
