// Package metrics computes the rolling 5-minute operational stats exposed
// at GET /v1/ops/metrics from the durable Job/Result tables, so the
// numbers survive a worker restart instead of resetting with it.
package metrics

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"inference-scheduler/internal/dto"
	"inference-scheduler/internal/model"
)

const windowMinutes = 5

// Collector computes metrics on demand from the durable Job/Result tables.
type Collector struct {
	db *gorm.DB
}

// NewCollector wraps a database handle.
func NewCollector(db *gorm.DB) *Collector {
	return &Collector{db: db}
}

// Snapshot computes the rolling-window statistics as of now.
func (c *Collector) Snapshot() (dto.MetricsResponse, error) {
	since := time.Now().Add(-windowMinutes * time.Minute)

	var total, succeeded, failed int64
	if err := c.db.Model(&model.Job{}).Where("created_at >= ?", since).Count(&total).Error; err != nil {
		return dto.MetricsResponse{}, err
	}
	if err := c.db.Model(&model.Job{}).
		Where("created_at >= ? AND status = ?", since, model.StatusCompleted).
		Count(&succeeded).Error; err != nil {
		return dto.MetricsResponse{}, err
	}
	if err := c.db.Model(&model.Job{}).
		Where("created_at >= ? AND status = ?", since, model.StatusFailed).
		Count(&failed).Error; err != nil {
		return dto.MetricsResponse{}, err
	}

	latencies, err := c.endToEndLatencies(since)
	if err != nil {
		return dto.MetricsResponse{}, err
	}

	failureRate := 0.0
	if total > 0 {
		failureRate = float64(failed) / float64(total)
	}

	return dto.MetricsResponse{
		WindowMinutes:          windowMinutes,
		ThroughputRPS:          float64(succeeded) / (windowMinutes * 60),
		FailureRate:            failureRate,
		EndToEndLatencySeconds: percentiles(latencies),
		TotalRequests:          total,
		SuccessRequests:        succeeded,
		FailedRequests:         failed,
	}, nil
}

// endToEndLatencies returns Result.created_at - Job.created_at in seconds
// for every job completed within the window.
func (c *Collector) endToEndLatencies(since time.Time) ([]float64, error) {
	type row struct {
		JobCreatedAt    time.Time
		ResultCreatedAt time.Time
	}
	var rows []row
	err := c.db.Table("inference_jobs").
		Select("inference_jobs.created_at AS job_created_at, inference_results.created_at AS result_created_at").
		Joins("JOIN inference_results ON inference_results.job_id = inference_jobs.id").
		Where("inference_jobs.created_at >= ?", since).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.ResultCreatedAt.Sub(r.JobCreatedAt).Seconds()
	}
	return out, nil
}

func percentiles(samples []float64) dto.LatencyPercentiles {
	if len(samples) == 0 {
		return dto.LatencyPercentiles{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return dto.LatencyPercentiles{
		P50: quantile(sorted, 0.50),
		P95: quantile(sorted, 0.95),
		P99: quantile(sorted, 0.99),
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}
