package client

import (
	"context"
	"cosmic-classifier/pkg/api"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is returned for any non 2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsIncompleteInput reports whether the server rejected the request for missing fields.
func (e *APIError) IsIncompleteInput() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

type Client struct {
	client *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")+"/api/v1").
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	req := c.client.R().SetContext(ctx).SetResult(&out)
	if body != nil {
		req.SetBody(body)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return out, fmt.Errorf("error calling %s %s: %w", method, path, err)
	}
	if !res.IsSuccess() {
		return out, &APIError{StatusCode: res.StatusCode(), Message: strings.TrimSpace(res.String())}
	}
	return out, nil
}

func (c *Client) Health(ctx context.Context) error {
	_, err := do[struct{}](ctx, c, resty.MethodGet, "/health", nil)
	return err
}

func (c *Client) Features(ctx context.Context) ([]api.FeatureInfo, error) {
	return do[[]api.FeatureInfo](ctx, c, resty.MethodGet, "/features", nil)
}

func (c *Client) ResetForm(ctx context.Context) (api.FormResponse, error) {
	return do[api.FormResponse](ctx, c, resty.MethodGet, "/form/reset", nil)
}

func (c *Client) Predict(ctx context.Context, req api.PredictRequest) (api.PredictResponse, error) {
	return do[api.PredictResponse](ctx, c, resty.MethodPost, "/predict", req)
}

func (c *Client) PredictBatch(ctx context.Context, items []api.PredictRequest) (api.BatchPredictResponse, error) {
	return do[api.BatchPredictResponse](ctx, c, resty.MethodPost, "/predict/batch", api.BatchPredictRequest{Items: items})
}

func (c *Client) Model(ctx context.Context) (api.ModelInfo, error) {
	return do[api.ModelInfo](ctx, c, resty.MethodGet, "/model", nil)
}

// ModelHistory is Model plus the n most recent deployments recorded by any replica.
func (c *Client) ModelHistory(ctx context.Context, n int) (api.ModelInfo, error) {
	return do[api.ModelInfo](ctx, c, resty.MethodGet, fmt.Sprintf("/model?history=%d", n), nil)
}
