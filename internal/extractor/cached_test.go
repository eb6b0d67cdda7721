package extractor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingExtractor returns a fixed result and counts calls. When gate is
// set, calls block until it is closed or their context ends.
type countingExtractor struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (e *countingExtractor) Extract(ctx context.Context, req core.ExtractionRequest) (*core.ExtractionResult, error) {
	e.calls.Add(1)
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return &core.ExtractionResult{HTML: "<p>" + req.URL + "</p>"}, nil
}

// failingCache fails every operation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (failingCache) Close() error { return nil }

func TestCacheKey(t *testing.T) {
	a := core.ExtractionRequest{URL: "https://acme.com", Options: core.ExtractionOptions{Formats: []string{"links", "html"}}}
	b := core.ExtractionRequest{URL: " https://acme.com ", Options: core.ExtractionOptions{Formats: []string{"html", "links"}, WaitTime: 500}}
	c := core.ExtractionRequest{URL: "https://acme.com", Options: core.ExtractionOptions{Formats: []string{"html"}}}

	assert.Equal(t, CacheKey(a), CacheKey(b), "format order, whitespace and wait time do not matter")
	assert.NotEqual(t, CacheKey(a), CacheKey(c))
	assert.Equal(t, []string{"links", "html"}, a.Options.Formats, "request is not mutated")
}

func TestCachedExtractor_Hit(t *testing.T) {
	next := &countingExtractor{}
	cached := NewCachedExtractor(next, NewMemoryCache(), time.Hour)
	ctx := context.Background()

	first, err := cached.Extract(ctx, homeRequest())
	require.NoError(t, err)
	second, err := cached.Extract(ctx, homeRequest())
	require.NoError(t, err)

	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedExtractor_ErrorsAreNotCached(t *testing.T) {
	next := &countingExtractor{err: errors.New("boom")}
	cached := NewCachedExtractor(next, NewMemoryCache(), time.Hour)

	for range 2 {
		_, err := cached.Extract(context.Background(), homeRequest())
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedExtractor_CacheFailuresPassThrough(t *testing.T) {
	next := &countingExtractor{}
	cached := NewCachedExtractor(next, failingCache{}, time.Hour)

	res, err := cached.Extract(context.Background(), homeRequest())
	require.NoError(t, err)
	assert.Equal(t, "<p>https://acme.com</p>", res.HTML)
}

func TestCachedExtractor_UndecodableEntry(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Set(context.Background(), CacheKey(homeRequest()), []byte("{not json"), time.Hour))

	next := &countingExtractor{}
	res, err := NewCachedExtractor(next, cache, time.Hour).Extract(context.Background(), homeRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.HTML)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedExtractor_ConcurrentMissesShareOneCall(t *testing.T) {
	next := &countingExtractor{gate: make(chan struct{})}
	cached := NewCachedExtractor(next, NewMemoryCache(), time.Hour)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.Extract(context.Background(), homeRequest())
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.gate)
	wg.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedExtractor_CancelledCallerDoesNotFailSharedCall(t *testing.T) {
	next := &countingExtractor{gate: make(chan struct{})}
	cached := NewCachedExtractor(next, NewMemoryCache(), time.Hour)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached.Extract(firstCtx, homeRequest())
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type outcome struct {
		res *core.ExtractionResult
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := cached.Extract(context.Background(), homeRequest())
		second <- outcome{res, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller stayed blocked on the shared call")
	}

	close(next.gate)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, "<p>https://acme.com</p>", got.res.HTML)
	case <-time.After(time.Second):
		t.Fatal("second caller never got the shared result")
	}
	assert.Equal(t, int32(1), next.calls.Load())

	_, err := cached.Extract(context.Background(), homeRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.calls.Load(), "the shared result was cached")
}
