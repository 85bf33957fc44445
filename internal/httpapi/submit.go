// Package httpapi wires the Gin HTTP surface: job submission, polling,
// result retrieval, and the operational endpoints (health, metrics, DLQ).
// It houses SubmitHandler (C10) plus its read-only companion endpoints.
package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/logharbour/logharbour"

	"inference-scheduler/internal/apierr"
	"inference-scheduler/internal/dto"
	"inference-scheduler/internal/metrics"
	"inference-scheduler/internal/model"
	"inference-scheduler/internal/queuestore"
	"inference-scheduler/internal/ratelimit"
)

// maxImageBytes is the 10 MiB submission ceiling.
const maxImageBytes = 10 * 1024 * 1024

// Handlers groups the dependencies every route in this package shares.
type Handlers struct {
	repo    Repository
	store   *queuestore.Store
	limiter *ratelimit.Limiter
	metrics *metrics.Collector
	logger  *logharbour.Logger
}

// New wires a Handlers value with its dependencies.
func New(repo Repository, store *queuestore.Store, limiter *ratelimit.Limiter, metricsCollector *metrics.Collector, logger *logharbour.Logger) *Handlers {
	return &Handlers{repo: repo, store: store, limiter: limiter, metrics: metricsCollector, logger: logger}
}

// RegisterRoutes registers every route this package serves onto r.
func (h *Handlers) RegisterRoutes(r *gin.RouterGroup) {
	r.Use(h.rateLimitMiddleware())

	jobs := r.Group("/jobs")
	jobs.POST("", h.SubmitJob)
	jobs.GET("/:id", h.GetJob)
	jobs.GET("/:id/result", h.GetResult)

	ops := r.Group("/ops")
	ops.GET("/health", h.Health)
	ops.GET("/metrics", h.Metrics)
	ops.GET("/dlq", h.DLQ)
}

func (h *Handlers) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		source := c.ClientIP()
		if !h.limiter.Allow(c.Request.Context(), source) {
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SubmitJob validates the upload, fingerprints it, checks for a duplicate
// submission (cache then DB fallback), creates the Job row, then performs
// the three best-effort Redis writes that sit outside the DB transaction.
// A crash between any two steps leaves the job recoverable, if at all, by
// StuckJobRecovery rather than the request path itself.
func (h *Handlers) SubmitJob(c *gin.Context) {
	data, _, err := readImageField(c)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		apierr.Respond(c, &apierr.UnprocessableError{Reason: "image header could not be decoded: " + err.Error()})
		return
	}

	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])
	ctx := c.Request.Context()

	if jobID, hit, err := h.store.GetCachedJob(ctx, sha); err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	} else if hit {
		if job, err := h.repo.Get(jobID); err != nil {
			apierr.Respond(c, &apierr.TransportError{Cause: err})
			return
		} else if job != nil {
			h.respondExisting(c, http.StatusOK, job)
			return
		}
	}

	if job, err := h.repo.FindActiveBySHA(sha); err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	} else if job != nil {
		if err := h.store.SetCachedJob(ctx, sha, job.ID); err != nil {
			h.logger.Warn().LogActivity("dedup cache repopulate failed", map[string]any{"job_id": job.ID})
		}
		if job.Status != model.StatusCompleted && job.Status != model.StatusFailed {
			if err := h.store.StoreImage(ctx, sha, data); err != nil {
				h.logger.Warn().LogActivity("image blob restore failed", map[string]any{"job_id": job.ID})
			}
		}
		h.respondExisting(c, http.StatusOK, job)
		return
	}

	modelVersion, err := h.repo.LatestModel()
	if err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	}
	if modelVersion == nil {
		apierr.Respond(c, &apierr.ServiceUnavailableError{Reason: "no model version has been seeded"})
		return
	}

	job, err := h.repo.CreateJob(modelVersion.ID, sha)
	if err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	}

	if err := h.store.StoreImage(ctx, sha, data); err != nil {
		h.logger.Error(err).LogActivity("store_image failed after job create", map[string]any{"job_id": job.ID})
	}
	if err := h.store.Enqueue(ctx, job.ID); err != nil {
		h.logger.Error(err).LogActivity("enqueue failed after job create", map[string]any{"job_id": job.ID})
	}
	if err := h.store.SetCachedJob(ctx, sha, job.ID); err != nil {
		h.logger.Warn().LogActivity("set_cached_job failed after job create", map[string]any{"job_id": job.ID})
	}

	c.JSON(http.StatusCreated, dto.JobSummaryFrom(job))
}

// respondExisting returns a dedup hit: the full Result if the job already
// completed, otherwise just the Job summary.
func (h *Handlers) respondExisting(c *gin.Context, status int, job *model.Job) {
	if job.Status == model.StatusCompleted {
		result, err := h.repo.GetResult(job.ID)
		if err != nil {
			apierr.Respond(c, &apierr.TransportError{Cause: err})
			return
		}
		if result != nil {
			c.JSON(status, dto.ResultResponseFrom(result))
			return
		}
	}
	c.JSON(status, dto.JobSummaryFrom(job))
}

// readImageField extracts and validates the multipart "image" field,
// returning its bytes and declared content-type, or a mapped apierr value.
func readImageField(c *gin.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, "", &apierr.InputError{Message: "missing required multipart field \"image\""}
	}
	if fileHeader.Size > maxImageBytes {
		return nil, "", &apierr.TooLargeError{SizeBytes: fileHeader.Size}
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", &apierr.UnsupportedMediaError{ContentType: contentType}
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", &apierr.InputError{Message: "could not read uploaded image"}
	}
	defer f.Close()

	limited := io.LimitReader(f, maxImageBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", &apierr.InputError{Message: "could not read uploaded image"}
	}
	if len(data) > maxImageBytes {
		return nil, "", &apierr.TooLargeError{SizeBytes: int64(len(data))}
	}

	return data, contentType, nil
}

// GetJob polls a job's current status.
func (h *Handlers) GetJob(c *gin.Context) {
	id, err := parseJobID(c)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	job, err := h.repo.Get(id)
	if err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	}
	if job == nil {
		apierr.Respond(c, &apierr.JobNotFoundError{JobID: id})
		return
	}
	c.JSON(http.StatusOK, dto.JobSummaryFrom(job))
}

// GetResult fetches a completed job's result.
func (h *Handlers) GetResult(c *gin.Context) {
	id, err := parseJobID(c)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	job, err := h.repo.Get(id)
	if err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	}
	if job == nil {
		apierr.Respond(c, &apierr.JobNotFoundError{JobID: id})
		return
	}
	if job.Status != model.StatusCompleted {
		apierr.Respond(c, &apierr.ResultNotReadyError{JobID: id, Status: string(job.Status)})
		return
	}

	result, err := h.repo.GetResult(id)
	if err != nil {
		apierr.Respond(c, &apierr.TransportError{Cause: err})
		return
	}
	if result == nil {
		apierr.Respond(c, &apierr.ResultNotReadyError{JobID: id, Status: string(job.Status)})
		return
	}
	c.JSON(http.StatusOK, dto.ResultResponseFrom(result))
}

func parseJobID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, &apierr.InputError{Message: "invalid job id"}
	}
	return id, nil
}
