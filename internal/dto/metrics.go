package dto

// LatencyPercentiles holds the rolling-window percentiles of end-to-end
// latency, defined as Result.created_at - Job.created_at.
type LatencyPercentiles struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// MetricsResponse is the response shape for GET /v1/ops/metrics.
type MetricsResponse struct {
	WindowMinutes             int                 `json:"window_minutes"`
	ThroughputRPS             float64             `json:"throughput_rps"`
	FailureRate               float64             `json:"failure_rate"`
	EndToEndLatencySeconds    LatencyPercentiles  `json:"end_to_end_latency_seconds"`
	TotalRequests             int64               `json:"total_requests"`
	SuccessRequests           int64               `json:"success_requests"`
	FailedRequests            int64               `json:"failed_requests"`
}

// DLQEntry is one row of GET /v1/ops/dlq: the dead-letter job id joined
// with its current DB state, if it still exists.
type DLQEntry struct {
	JobID  int64   `json:"job_id"`
	Status *string `json:"status,omitempty"`
}
