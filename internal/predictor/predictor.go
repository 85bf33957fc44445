// Package predictor defines the external inference capability the scheduler
// treats as an opaque batch function with a deadline. The neural-network
// model itself, its weight loading, and its preprocessing pipeline are
// outside this repository's scope (spec'd as an external collaborator); this
// package only fixes the boundary two implementations can satisfy.
package predictor

import (
	"context"
	"time"

	"inference-scheduler/internal/model"
)

// Input is an opaque preprocessed tensor/array handle, produced by
// Preprocess from raw image bytes and consumed by PredictBatch. Its
// concrete representation is implementation-defined.
type Input any

// Predictor is the capability BatchExecutor depends on. A single instance
// is owned by one worker process for that process's lifetime; Load is
// called once at worker startup and the instance is never shared across
// processes, since it may hold native model memory.
type Predictor interface {
	// Load initializes model weights. Called once per worker process.
	Load(ctx context.Context) error

	// Preprocess decodes raw image bytes into an Input. A decode failure
	// should be returned as an error, never panic.
	Preprocess(data []byte) (Input, error)

	// PredictBatch runs one forward pass over the given inputs and returns
	// one ScoreMap per input, in the same order. The context carries the
	// per-batch deadline (INFERENCE_TIMEOUT * len(inputs)); implementations
	// must respect it and return ctx.Err() on breach rather than block
	// past the deadline when the runtime allows cancellation.
	PredictBatch(ctx context.Context, inputs []Input) ([]model.ScoreMap, error)
}

// Deadline computes the per-batch deadline for a batch of the given size:
// INFERENCE_TIMEOUT multiplied by the batch size, so a full batch of 8
// doesn't trip a budget calibrated for a single job.
func Deadline(perJobTimeout time.Duration, batchSize int) time.Duration {
	if batchSize <= 0 {
		batchSize = 1
	}
	return perJobTimeout * time.Duration(batchSize)
}
