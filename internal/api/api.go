package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"ai-scalper/internal/logger"
)

// AuthError marks a 401 from the remote. It is fatal to the caller and is
// never retried.
type AuthError struct {
	URL string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (401): %s", e.URL)
}

// APIError is any non-2xx response other than 401/429, or a 429 that
// survived all retries.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *APIError) Retryable() bool { return e.Status == http.StatusTooManyRequests }

// Client wraps an HTTP endpoint with default headers, rate limiting and a
// bounded retry policy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	limiter    *rate.Limiter
	retry      RetryConfig
	sleep      func(ctx context.Context, d time.Duration) error
}

// RetryConfig bounds the retry loop. MaxAttempts counts the initial try.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
}

// DefaultRetryConfig is 1 initial attempt plus 3 retries, delays doubling
// from 2 seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 4, InitialWait: 2 * time.Second}
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithRateLimit caps outbound requests per second across all callers of
// this client.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithRetry(cfg RetryConfig) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

// WithSleep injects the delay function used between retries. Tests swap it
// for an instant recorder.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = sleep }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    make(map[string]string),
		retry:      DefaultRetryConfig(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Body    any
	Headers map[string]string
}

type Response struct {
	StatusCode int
	Body       []byte
}

// NoContent reports a 204 success-with-no-payload response.
func (r *Response) NoContent() bool { return r.StatusCode == http.StatusNoContent }

func (r *Response) ParseJSON(v any) error {
	if r.NoContent() {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// do executes a single attempt and classifies the outcome.
func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	url := c.baseURL + req.Path
	var bodyReader io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	q := httpReq.URL.Query()
	for k, v := range req.Query {
		q.Set(k, v)
	}
	httpReq.URL.RawQuery = q.Encode()

	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{URL: url}
	case httpResp.StatusCode >= 400:
		return nil, &APIError{Status: httpResp.StatusCode, Body: string(body)}
	}
	return &Response{StatusCode: httpResp.StatusCode, Body: body}, nil
}

// Do executes the request with the client's retry policy: transient network
// failures and 429s are retried with exponentially doubling delays; an
// AuthError aborts immediately and is handed back untouched.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	wait := c.retry.InitialWait

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.do(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt < c.retry.MaxAttempts {
			logger.Warn(ctx, "Request failed, retrying",
				"method", req.Method, "path", req.Path,
				"attempt", attempt, "wait", wait.String(), "error", err)
			if serr := c.sleep(ctx, wait); serr != nil {
				return nil, serr
			}
			wait *= 2
		}
	}

	logger.Error(ctx, "All retry attempts failed",
		"method", req.Method, "path", req.Path,
		"attempts", c.retry.MaxAttempts, "error", lastErr)
	return nil, lastErr
}

func retryable(err error) bool {
	switch e := err.(type) {
	case *AuthError:
		return false
	case *APIError:
		return e.Retryable()
	default:
		// Transport-level failure.
		return true
	}
}

func (c *Client) GET(ctx context.Context, path string, query map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) POST(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) DELETE(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}
