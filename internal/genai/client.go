package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "go-image-query/internal/errors"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// SleepFunc waits for the given duration or until the context is done.
// Injected so retry timing is testable without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BackoffDelay returns the wait before retrying after failed attempt i:
// base * 2^i, no jitter.
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	return base << uint(attempt)
}

// Client sends generate requests to a single configured endpoint, retrying
// transient failures with exponential backoff. Upstream 4xx responses are
// permanent and never retried; 5xx and transport-level failures are retried
// until attempts are exhausted. Attempts within one call are strictly
// sequential and only one request is ever in flight per call.
type Client struct {
	endpoint    string
	apiKey      string
	maxAttempts int
	baseDelay   time.Duration
	httpClient  *http.Client
	sleep       SleepFunc

	// onRetry, when set, is told about each scheduled retry. Intermediate
	// failures are never surfaced to the caller; this hook exists so they
	// stay observable.
	onRetry func(attempt int, delay time.Duration, cause error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy sets the attempt budget and base backoff delay.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts >= 1 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithSleep replaces the backoff wait. Tests inject a recorder here.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithRetryHook registers a callback invoked before each backoff wait.
func WithRetryHook(hook func(attempt int, delay time.Duration, cause error)) Option {
	return func(c *Client) { c.onRetry = hook }
}

// NewClient creates a client for the given endpoint. The API key is passed
// to the upstream as a query parameter on every request.
func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		apiKey:      apiKey,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		sleep:       contextSleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends one generate request and returns the decoded response body.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal request", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		resp, err := c.doAttempt(ctx, body)
		if err == nil {
			return resp, nil
		}

		// 4xx is a permanent caller-side fault; retrying wastes quota.
		// A bad payload on a success status is equally unretryable.
		if appErr, ok := err.(*apperrors.AppError); ok &&
			(appErr.Type == apperrors.ErrorTypeClient || appErr.Type == apperrors.ErrorTypeResponseShape) {
			return nil, err
		}
		lastErr = err

		if attempt == c.maxAttempts-1 {
			break
		}

		delay := BackoffDelay(c.baseDelay, attempt)
		if c.onRetry != nil {
			c.onRetry(attempt, delay, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, apperrors.NewTimeoutError("request abandoned during backoff", err)
		}
	}

	if apperrors.IsType(lastErr, apperrors.ErrorTypeNetwork) {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("request failed after %d attempts", c.maxAttempts), lastErr)
	}
	return nil, apperrors.NewServerError(
		fmt.Sprintf("upstream unavailable after %d attempts", c.maxAttempts), lastErr)
}

// doAttempt performs a single HTTP exchange and classifies the outcome.
func (c *Client) doAttempt(ctx context.Context, body []byte) (*GenerateResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	q := httpReq.URL.Query()
	q.Set("key", c.apiKey)
	httpReq.URL.RawQuery = q.Encode()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewNetworkError("transport failure", err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode >= 200 && httpResp.StatusCode < 300:
		var resp GenerateResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
			return nil, apperrors.NewResponseShapeError("unparseable response body", err)
		}
		return &resp, nil
	case httpResp.StatusCode >= 400 && httpResp.StatusCode < 500:
		io.Copy(io.Discard, httpResp.Body)
		return nil, apperrors.NewClientError(httpResp.StatusCode)
	default:
		io.Copy(io.Discard, httpResp.Body)
		return nil, apperrors.NewServerError(
			fmt.Sprintf("upstream returned status %d", httpResp.StatusCode), nil)
	}
}
