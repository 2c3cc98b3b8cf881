package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"moodtune/logger"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
	maxResponseBytes  = 1 << 20
)

// ErrUpstream marks a failed call to the prediction service.
var ErrUpstream = errors.New("emotion prediction failed")

// ErrEmptyText rejects a prediction request without text.
var ErrEmptyText = errors.New("Text is required")

// Classifier turns free text into the prediction service's raw JSON reply.
type Classifier interface {
	Predict(ctx context.Context, text string) ([]byte, error)
}

// HTTPClassifier forwards {"text": ...} to the prediction endpoint.
type HTTPClassifier struct {
	url        string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	wait       func(context.Context, time.Duration) error
}

// Option customizes an HTTPClassifier.
type Option func(*HTTPClassifier)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClassifier) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetries sets how many extra attempts follow a failed call.
func WithRetries(n int) Option {
	return func(c *HTTPClassifier) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *HTTPClassifier) {
		c.retryDelay = d
	}
}

// WithWait overrides how retry pauses are performed. wait must return
// ctx.Err() when ctx ends first.
func WithWait(wait func(context.Context, time.Duration) error) Option {
	return func(c *HTTPClassifier) {
		if wait != nil {
			c.wait = wait
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewHTTPClassifier builds a classifier for url. A non-positive timeout
// falls back to 10s.
func NewHTTPClassifier(url string, timeout time.Duration, opts ...Option) *HTTPClassifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &HTTPClassifier{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: defaultRetryDelay,
		wait:       sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type predictRequest struct {
	Text string `json:"text"`
}

// Predict returns the upstream body unmodified. Any transport error or
// non-2xx status is reported as ErrUpstream.
func (c *HTTPClassifier) Predict(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, c.retryDelay); err != nil {
				return nil, fmt.Errorf("%w: %v (after %v)", ErrUpstream, err, lastErr)
			}
		}
		body, err := c.do(ctx, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		logger.Warn("[Emotion] prediction attempt failed",
			logger.Int("attempt", attempt+1),
			logger.Int("maxAttempts", c.retries+1),
			logger.ErrorField(err))
	}
	return nil, lastErr
}

func (c *HTTPClassifier) do(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxResponseBytes {
			body = body[:maxResponseBytes]
		}
		return nil, fmt.Errorf("%w: http %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrUpstream, maxResponseBytes)
	}
	return body, nil
}
