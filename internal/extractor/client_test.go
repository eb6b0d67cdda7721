package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string, retries int) *Client {
	return New(Config{
		URL:               url,
		APIKey:            "secret",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             10,
		MaxRetries:        retries,
		RetryBaseDelay:    time.Millisecond,
	})
}

func homeRequest() core.ExtractionRequest {
	return core.ExtractionRequest{
		URL:     "https://acme.com",
		Options: core.ExtractionOptions{Formats: []string{core.FormatHTML, core.FormatLinks}},
	}
}

func TestClient_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req core.ExtractionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://acme.com", req.URL)
		assert.Equal(t, []string{"html", "links"}, req.Options.Formats)

		io.WriteString(w, `{"html":"<h1>hi</h1>","menu_items":[{"label":"Shop","url":"/shop"}]}`)
	}))
	defer srv.Close()

	res, err := testClient(srv.URL, 0).Extract(context.Background(), homeRequest())
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", res.HTML)
	require.Len(t, res.MenuItems, 1)
	assert.Equal(t, "Shop", res.MenuItems[0].Label)
}

func TestClient_Extract_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			http.Error(w, "upstream down", http.StatusBadGateway)
		default:
			io.WriteString(w, `{"html":"ok"}`)
		}
	}))
	defer srv.Close()

	res, err := testClient(srv.URL, 3).Extract(context.Background(), homeRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", res.HTML)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Extract_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Extract(context.Background(), homeRequest())

	var netErr *core.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
	assert.Equal(t, "https://acme.com", netErr.URL)
	assert.Contains(t, err.Error(), "still down")
	assert.Equal(t, int32(3), calls.Load(), "first attempt plus two retries")
}

func TestClient_Extract_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad url", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Extract(context.Background(), homeRequest())

	var netErr *core.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusBadRequest, netErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Extract_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL, 5).Extract(ctx, homeRequest())

	var netErr *core.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestDecodeResult(t *testing.T) {
	t.Run("bare", func(t *testing.T) {
		res, err := decodeResult([]byte(`{"html":"a","categories":[{"name":"Shoes","url":"/c/shoes"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "a", res.HTML)
		assert.Len(t, res.Categories, 1)
	})

	t.Run("data envelope", func(t *testing.T) {
		res, err := decodeResult([]byte(`{"success":true,"data":{"html":"b","branding":{"logo_url":"https://x/logo.png"}}}`))
		require.NoError(t, err)
		assert.Equal(t, "b", res.HTML)
		require.NotNil(t, res.Branding)
	})

	t.Run("error envelope", func(t *testing.T) {
		_, err := decodeResult([]byte(`{"error":"blocked by robots"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blocked by robots")
	})

	t.Run("not json", func(t *testing.T) {
		_, err := decodeResult([]byte(`<html>`))
		assert.Error(t, err)
	})
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"soon", 0},
		{now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.value, now))
		})
	}
}

func TestClient_Backoff(t *testing.T) {
	c := New(Config{RetryBaseDelay: 100 * time.Millisecond})

	for attempt := range 4 {
		d := c.backoff(attempt)
		base := 100 * time.Millisecond << attempt
		assert.GreaterOrEqual(t, d, base, "attempt %d", attempt)
		assert.LessOrEqual(t, d, base+base/4, "attempt %d", attempt)
	}
	assert.Equal(t, maxRetryDelay, c.backoff(20), "capped")
}
