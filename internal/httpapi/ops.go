package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inference-scheduler/internal/apierr"
	"inference-scheduler/internal/dto"
)

// Health reports DB and Redis liveness, per GET /v1/ops/health.
func (h *Handlers) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbErr := h.repo.Ping()
	redisErr := h.store.Ping(ctx)

	if dbErr != nil || redisErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Metrics returns the rolling 5-minute operational stats.
func (h *Handlers) Metrics(c *gin.Context) {
	snapshot, err := h.metrics.Snapshot()
	if err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// DLQ lists dead-letter job ids joined with their current DB status, if the
// row still exists.
func (h *Handlers) DLQ(c *gin.Context) {
	ctx := c.Request.Context()

	ids, err := h.store.ListDLQ(ctx)
	if err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	}

	entries := make([]dto.DLQEntry, 0, len(ids))
	for _, id := range ids {
		entry := dto.DLQEntry{JobID: id}
		job, err := h.repo.Get(id)
		if err == nil && job != nil {
			status := string(job.Status)
			entry.Status = &status
		}
		entries = append(entries, entry)
	}
	c.JSON(http.StatusOK, entries)
}
