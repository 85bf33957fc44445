// Package apierr defines the error taxonomy raised at the system's
// boundaries and the Gin middleware/helpers that turn them into HTTP
// responses.
package apierr

import "fmt"

// InputError is client-side validation failure; surfaced as 4xx, never
// retried.
type InputError struct{ Message string }

func (e *InputError) Error() string { return e.Message }

// TooLargeError is returned when the submitted image exceeds the 10 MiB
// limit.
type TooLargeError struct{ SizeBytes int64 }

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("image size %d bytes exceeds the 10 MiB limit", e.SizeBytes)
}

// UnsupportedMediaError is returned when the content-type doesn't begin
// with "image/".
type UnsupportedMediaError struct{ ContentType string }

func (e *UnsupportedMediaError) Error() string {
	return fmt.Sprintf("unsupported content type %q", e.ContentType)
}

// UnprocessableError is returned when the image header fails to parse
// despite an image/* content-type (e.g. image/svg+xml, which has no
// registered raster decoder).
type UnprocessableError struct{ Reason string }

func (e *UnprocessableError) Error() string { return e.Reason }

// TransportError wraps any DB or Redis unreachability.
type TransportError struct{ Cause error }

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %v", e.Cause) }
func (e *TransportError) Unwrap() error { return e.Cause }

// ServiceUnavailableError is returned when no ModelVersion has been seeded
// yet.
type ServiceUnavailableError struct{ Reason string }

func (e *ServiceUnavailableError) Error() string { return e.Reason }

// JobNotFoundError is returned when a requested job id doesn't exist.
type JobNotFoundError struct{ JobID int64 }

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job not found: id=%d", e.JobID)
}

// ResultNotReadyError is returned when a result is requested for a job that
// hasn't reached COMPLETED.
type ResultNotReadyError struct {
	JobID  int64
	Status string
}

func (e *ResultNotReadyError) Error() string {
	return fmt.Sprintf("job %d is not completed (status=%s)", e.JobID, e.Status)
}

// PreprocessError marks a job for retry when its blob is present but
// undecodable at batch time.
type PreprocessError struct{ Cause error }

func (e *PreprocessError) Error() string { return fmt.Sprintf("preprocess failed: %v", e.Cause) }
func (e *PreprocessError) Unwrap() error { return e.Cause }

// InferenceTimeoutError marks a batch for retry after the forward pass
// breached its deadline.
type InferenceTimeoutError struct{}

func (e *InferenceTimeoutError) Error() string { return "inference timed out" }

// InferenceError marks a batch for retry after the forward pass returned an
// error.
type InferenceError struct{ Cause error }

func (e *InferenceError) Error() string { return fmt.Sprintf("inference failed: %v", e.Cause) }
func (e *InferenceError) Unwrap() error { return e.Cause }

// BlobMissingError marks a job for retry when its image TTL expired before
// a worker fetched it.
type BlobMissingError struct{ SHA256 string }

func (e *BlobMissingError) Error() string {
	return fmt.Sprintf("image blob missing for sha256=%s", e.SHA256)
}

// FatalBootError is raised when a predictor fails to load at worker
// startup; the worker process exits and the supervisor restarts it.
type FatalBootError struct{ Cause error }

func (e *FatalBootError) Error() string { return fmt.Sprintf("predictor failed to load: %v", e.Cause) }
func (e *FatalBootError) Unwrap() error { return e.Cause }
