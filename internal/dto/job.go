// Package dto holds the wire-shape structs returned by the HTTP surface,
// kept separate from the persisted model types so storage columns can
// evolve without changing the API contract.
package dto

import (
	"time"

	"inference-scheduler/internal/model"
)

// JobSummary is the response shape for job creation and status polling.
type JobSummary struct {
	ID        int64      `json:"id"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// JobSummaryFrom converts a Job entity into its wire representation.
func JobSummaryFrom(job *model.Job) JobSummary {
	updatedAt := job.UpdatedAt
	return JobSummary{
		ID:        job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
		UpdatedAt: &updatedAt,
	}
}

// ResultResponse is the response shape for a completed job's result.
type ResultResponse struct {
	JobID     int64            `json:"job_id"`
	TopLabel  string           `json:"top_label"`
	Output    model.ScoreMap   `json:"output"`
	CreatedAt time.Time        `json:"created_at"`
}

// ResultResponseFrom converts a Result entity into its wire representation.
func ResultResponseFrom(result *model.Result) ResultResponse {
	return ResultResponse{
		JobID:     result.JobID,
		TopLabel:  result.TopLabel,
		Output:    result.Output,
		CreatedAt: result.CreatedAt,
	}
}
