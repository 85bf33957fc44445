package httpapi

import "inference-scheduler/internal/model"

// Repository is the subset of JobRepository the HTTP surface depends on,
// declared here so handlers can be exercised against a fake in tests
// without a database.
type Repository interface {
	CreateJob(modelID int64, sha string) (*model.Job, error)
	Get(id int64) (*model.Job, error)
	FindActiveBySHA(sha string) (*model.Job, error)
	LatestModel() (*model.ModelVersion, error)
	GetResult(jobID int64) (*model.Result, error)
	Ping() error
}
