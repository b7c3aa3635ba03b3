package model

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteClassifier calls a model server exposing predict and predict_proba
// over HTTP. Failed calls are returned as-is; nothing is retried.
type RemoteClassifier struct {
	client *resty.Client
}

type instancesRequest struct {
	Instances [][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []int `json:"predictions"`
}

type probaResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// NewRemoteClassifier targets baseURL. A zero timeout means no deadline.
func NewRemoteClassifier(baseURL string, timeout time.Duration) *RemoteClassifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &RemoteClassifier{client: client}
}

func (c *RemoteClassifier) Predict(ctx context.Context, features []float64) (int, error) {
	var out predictResponse
	if err := c.post(ctx, "/predict", features, &out); err != nil {
		return 0, err
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("model server returned %d predictions", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

func (c *RemoteClassifier) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	var out probaResponse
	if err := c.post(ctx, "/predict_proba", features, &out); err != nil {
		return nil, err
	}
	if len(out.Probabilities) != 1 {
		return nil, fmt.Errorf("model server returned %d probability rows", len(out.Probabilities))
	}
	return out.Probabilities[0], nil
}

func (c *RemoteClassifier) post(ctx context.Context, path string, features []float64, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(instancesRequest{Instances: [][]float64{features}}).
		SetResult(out).
		Post(path)
	if err != nil {
		return fmt.Errorf("call model server %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("model server %s returned status %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (c *RemoteClassifier) Close() error {
	return nil
}
