package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"inference-scheduler/internal/model"
)

// HTTPPredictor delegates batch inference to an external sidecar process
// over HTTP, keeping the actual neural-network forward pass genuinely
// external to this repository. It satisfies Predictor by POSTing the
// preprocessed inputs as a JSON array and decoding a JSON array of score
// maps back.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPredictor builds a predictor that talks to the inference sidecar
// at baseURL. client is the caller's *http.Client, so the batch deadline
// set on the request's context governs the call.
func NewHTTPPredictor(baseURL string, client *http.Client) *HTTPPredictor {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPredictor{baseURL: baseURL, client: client}
}

func (p *HTTPPredictor) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/load", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("predictor: load request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("predictor: load returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *HTTPPredictor) Preprocess(data []byte) (Input, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("predictor: header decode failed: %w", err)
	}
	return data, nil
}

func (p *HTTPPredictor) PredictBatch(ctx context.Context, inputs []Input) ([]model.ScoreMap, error) {
	payload := make([][]byte, len(inputs))
	for i, in := range inputs {
		b, ok := in.([]byte)
		if !ok {
			return nil, fmt.Errorf("predictor: invalid preprocessed input at index %d", i)
		}
		payload[i] = b
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict_batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictor: predict_batch request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predictor: predict_batch returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var scores []model.ScoreMap
	if err := json.Unmarshal(respBody, &scores); err != nil {
		return nil, fmt.Errorf("predictor: malformed predict_batch response: %w", err)
	}
	return scores, nil
}
