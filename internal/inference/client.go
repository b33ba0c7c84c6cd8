// Package inference submits feature payloads to the remote scoring endpoint.
package inference

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lumenpay-systems/fraudpipe/internal/feature"
)

// Scorer submits one payload and returns the model's risk score. The remote
// model is not guaranteed to clamp its output to [0,1]; out-of-range floats
// are valid results, not errors.
type Scorer interface {
	Score(ctx context.Context, payload feature.Payload) (float64, error)
}

// InferenceError reports a failed or unparsable scoring call. It is
// record-local: the orchestrator skips the record and continues.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Client calls the scoring endpoint over HTTP. The payload is sent as a
// text/csv line and the response body is the raw score as text.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a Client for the given endpoint URL.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Score performs the synchronous scoring call.
func (c *Client) Score(ctx context.Context, payload feature.Payload) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(payload.CSVLine()))
	if err != nil {
		return 0, &InferenceError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &InferenceError{Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &InferenceError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return 0, &InferenceError{Err: fmt.Errorf("endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		return 0, &InferenceError{Err: fmt.Errorf("parse score %q: %w", strings.TrimSpace(string(body)), err)}
	}
	return score, nil
}
