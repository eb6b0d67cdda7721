package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/JonMunkholm/storemigrate/internal/logging"
	"golang.org/x/sync/singleflight"
)

// flightTimeout bounds a shared upstream call. The call outlives any single
// caller's context, so it needs a deadline of its own.
const flightTimeout = 2 * time.Minute

// CachedExtractor serves repeated extractions of the same URL and formats
// from a Cache. Concurrent misses for one key share a single upstream call.
type CachedExtractor struct {
	next          core.Extractor
	cache         Cache
	ttl           time.Duration
	flightTimeout time.Duration
	group         singleflight.Group
}

// NewCachedExtractor wraps next with cache.
func NewCachedExtractor(next core.Extractor, cache Cache, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{next: next, cache: cache, ttl: ttl, flightTimeout: flightTimeout}
}

// CacheKey identifies a request by URL and the sorted set of formats.
func CacheKey(req core.ExtractionRequest) string {
	formats := slices.Clone(req.Options.Formats)
	slices.Sort(formats)
	sum := sha256.Sum256([]byte(strings.TrimSpace(req.URL) + "|" + strings.Join(formats, ",")))
	return hex.EncodeToString(sum[:])
}

// Extract returns a cached result or calls the wrapped extractor. Cache
// failures are logged and never fail the request.
func (c *CachedExtractor) Extract(ctx context.Context, req core.ExtractionRequest) (*core.ExtractionResult, error) {
	key := CacheKey(req)
	logger := logging.WithFields(ctx, "url", req.URL)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var res core.ExtractionResult
		if err := json.Unmarshal(data, &res); err == nil {
			logger.Debug("extraction cache hit")
			return &res, nil
		}
		logger.Warn("discarding undecodable cache entry")
	} else if !errors.Is(err, ErrCacheMiss) {
		logger.Warn("extraction cache read failed", "error", err)
	}

	// The shared call runs detached from the caller that started it, so one
	// caller giving up does not fail the others waiting on the same key.
	ch := c.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()

		res, err := c.next.Extract(flightCtx, req)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("encode extraction result: %w", err)
		}
		if err := c.cache.Set(flightCtx, key, data, c.ttl); err != nil {
			logger.Warn("extraction cache write failed", "error", err)
		}
		return res, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*core.ExtractionResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
