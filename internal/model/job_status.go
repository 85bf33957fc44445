package model

// JobStatus is the closed sum type describing where a Job sits in its
// lifecycle. The main transition DAG is QUEUED -> IN_PROGRESS ->
// {COMPLETED, FAILED}; RetryPolicy moves a failed job back to QUEUED while
// it has attempts left, or to FAILED once they are spent (which, for a job
// routed from the stuck-QUEUED scan, is a QUEUED -> FAILED step).
type JobStatus string

const (
	StatusQueued     JobStatus = "QUEUED"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)
