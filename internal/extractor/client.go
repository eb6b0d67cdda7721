// Package extractor talks to the content-extraction service that renders a
// storefront URL and returns its HTML, branding, menus, categories and
// institutional pages.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/JonMunkholm/storemigrate/internal/logging"
	"golang.org/x/time/rate"
)

// maxRetryDelay caps both computed backoff and server Retry-After hints.
const maxRetryDelay = 30 * time.Second

// maxErrorBody is how much of a failed response is kept in the error.
const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	URL               string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryBaseDelay    time.Duration
}

// Client calls the extraction endpoint. Requests are throttled by a token
// bucket and retried with exponential backoff on 429 and 5xx responses.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.URL,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
	}
}

// attemptError is one failed attempt.
type attemptError struct {
	status     int
	retryAfter time.Duration
	retryable  bool
	err        error
}

// Extract renders req.URL through the extraction service. Failures are
// returned as *core.NetworkError.
func (c *Client) Extract(ctx context.Context, req core.ExtractionRequest) (*core.ExtractionResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode extraction request: %w", err)
	}
	logger := logging.WithFields(ctx, "url", req.URL)

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &core.NetworkError{Op: "extract", URL: req.URL, Err: err}
		}

		res, aerr := c.do(ctx, payload)
		if aerr == nil {
			return res, nil
		}

		if !aerr.retryable || attempt >= c.maxRetries || ctx.Err() != nil {
			return nil, &core.NetworkError{Op: "extract", URL: req.URL, StatusCode: aerr.status, Err: aerr.err}
		}

		delay := c.backoff(attempt)
		if aerr.retryAfter > 0 {
			delay = min(aerr.retryAfter, maxRetryDelay)
		}
		logger.Warn("extraction failed, retrying",
			"attempt", attempt+1,
			"status", aerr.status,
			"delay_ms", delay.Milliseconds(),
			"error", aerr.err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &core.NetworkError{Op: "extract", URL: req.URL, StatusCode: aerr.status, Err: ctx.Err()}
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, payload []byte) (*core.ExtractionResult, *attemptError) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &attemptError{err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &attemptError{retryable: !errors.Is(err, context.Canceled), err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &attemptError{status: resp.StatusCode, retryable: true, err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &attemptError{
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			err:        fmt.Errorf("unexpected status: %s", bytes.TrimSpace(snippet)),
		}
	}

	res, err := decodeResult(body)
	if err != nil {
		return nil, &attemptError{status: resp.StatusCode, err: err}
	}
	return res, nil
}

// decodeResult accepts the result either bare or wrapped in {"data": ...}.
func decodeResult(body []byte) (*core.ExtractionResult, error) {
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	if envelope.Error != "" && len(envelope.Data) == 0 {
		return nil, fmt.Errorf("extraction failed: %s", envelope.Error)
	}

	payload := body
	if len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		payload = envelope.Data
	}
	var res core.ExtractionResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	return &res, nil
}

// backoff returns base * 2^attempt with up to 25% jitter, capped.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseDelay << attempt
	if d <= 0 || d > maxRetryDelay {
		d = maxRetryDelay
	}
	jitter := time.Duration(rand.Int64N(int64(d)/4 + 1))
	return min(d+jitter, maxRetryDelay)
}

// parseRetryAfter reads delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
