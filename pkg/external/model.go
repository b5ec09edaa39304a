package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/afyacheck/screening-server/internal/domain"
)

// ModelClient calls the statistical classifier service that backs the
// legacy recommendation flows.
type ModelClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryCount int
}

// NewModelClient creates a new classifier service client
func NewModelClient(config domain.ModelAPIConfig) *ModelClient {
	return &ModelClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retryCount: config.RetryCount,
	}
}

type predictRequest struct {
	Condition string `json:"condition"`
	Features  []int  `json:"features"`
}

type predictResponse struct {
	Recommendation string `json:"recommendation"`
}

type predictProbaResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

type populationScoresResponse struct {
	Scores []float64 `json:"scores"`
}

// Predict returns the classifier's recommendation label for encoded features.
func (c *ModelClient) Predict(ctx context.Context, condition domain.Condition, features []int) (string, error) {
	var resp predictResponse
	err := c.postJSON(ctx, "/predict", predictRequest{
		Condition: string(condition),
		Features:  features,
	}, &resp)
	if err != nil {
		return "", domain.NewCollaboratorError("model-api", "predict", err)
	}
	if resp.Recommendation == "" {
		return "", domain.NewCollaboratorError("model-api", "predict",
			fmt.Errorf("empty recommendation in response"))
	}
	return resp.Recommendation, nil
}

// PredictProba returns the class probability vector for encoded features.
func (c *ModelClient) PredictProba(ctx context.Context, condition domain.Condition, features []int) ([]float64, error) {
	var resp predictProbaResponse
	err := c.postJSON(ctx, "/predict_proba", predictRequest{
		Condition: string(condition),
		Features:  features,
	}, &resp)
	if err != nil {
		return nil, domain.NewCollaboratorError("model-api", "predict_proba", err)
	}
	return resp.Probabilities, nil
}

// PopulationScores returns the population risk-score vector used for
// percentile ranking.
func (c *ModelClient) PopulationScores(ctx context.Context, condition domain.Condition) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/population_scores?condition=%s",
		c.baseURL, url.QueryEscape(string(condition)))

	var resp populationScoresResponse
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, &resp)
	if err != nil {
		return nil, domain.NewCollaboratorError("model-api", "population_scores", err)
	}
	return resp.Scores, nil
}

func (c *ModelClient) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	return c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

// doWithRetry executes the request, retrying transient failures with a
// short backoff. 4xx responses are not retried.
func (c *ModelClient) doWithRetry(ctx context.Context, build func() (*http.Request, error), out interface{}) error {
	attempts := c.retryCount
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(i) * 500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := build()
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response: %w", err)
			continue
		}

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("model API returned status %d: %s", resp.StatusCode, body)
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("model API returned status %d", resp.StatusCode)
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	return lastErr
}
