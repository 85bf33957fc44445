package model

import "time"

// ScoreMap is a label -> confidence score map, the output of one batch
// inference call for a single input.
type ScoreMap map[string]float64

// Result is the output of a completed Job. It exists only once its owning
// Job reaches COMPLETED; the primary key doubling as the foreign key to Job
// enforces at most one Result per Job and makes the insert naturally
// idempotent under a unique-constraint conflict.
type Result struct {
	JobID     int64     `json:"jobId" gorm:"column:job_id;primaryKey"`
	Output    ScoreMap  `json:"output" gorm:"column:output;type:json;serializer:json;not null"`
	TopLabel  string    `json:"topLabel" gorm:"column:top_label;not null;size:255;index:idx_results_top_label"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName specifies the database table name for the Result model.
func (Result) TableName() string {
	return "inference_results"
}

// ArgMax returns the label with the highest score, breaking ties
// lexicographically on the label for determinism.
func (s ScoreMap) ArgMax() string {
	best := ""
	bestScore := 0.0
	first := true
	for label, score := range s {
		if first || score > bestScore || (score == bestScore && label < best) {
			best = label
			bestScore = score
			first = false
		}
	}
	return best
}
