package predictor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"inference-scheduler/internal/model"
)

// labelCount mirrors the 18-entry output contract every Result row carries.
const labelCount = 18

// StubPredictor is a deterministic, dependency-free Predictor used for
// development and tests. It derives scores from the image bytes' hash so
// the same input always yields the same result (spec's "deterministic for
// fixed X and fixed model" round-trip property), without requiring a real
// model file on disk.
type StubPredictor struct {
	labels []string
}

// NewStubPredictor builds a stub with a fixed 18-label vocabulary.
func NewStubPredictor() *StubPredictor {
	labels := make([]string, labelCount)
	for i := range labels {
		labels[i] = fmt.Sprintf("class_%02d", i)
	}
	return &StubPredictor{labels: labels}
}

func (p *StubPredictor) Load(ctx context.Context) error {
	return nil
}

func (p *StubPredictor) Preprocess(data []byte) (Input, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("predictor: header decode failed: %w", err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func (p *StubPredictor) PredictBatch(ctx context.Context, inputs []Input) ([]model.ScoreMap, error) {
	out := make([]model.ScoreMap, len(inputs))
	for i, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		sum, ok := in.([]byte)
		if !ok || len(sum) < 8 {
			return nil, fmt.Errorf("predictor: invalid preprocessed input at index %d", i)
		}
		out[i] = scoresFromSeed(p.labels, binary.BigEndian.Uint64(sum))
	}
	return out, nil
}

// scoresFromSeed derives a reproducible, non-uniform score distribution
// from a 64-bit seed so ArgMax picks a consistent winner per input.
func scoresFromSeed(labels []string, seed uint64) model.ScoreMap {
	scores := make(model.ScoreMap, len(labels))
	x := seed
	for _, label := range labels {
		x = x*6364136223846793005 + 1442695040888963407
		scores[label] = float64(x>>40) / float64(1<<24)
	}
	return scores
}
