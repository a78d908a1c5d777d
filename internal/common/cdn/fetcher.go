// Package cdn fetches tenant descriptors and probes tenant assets on the
// CDN. Every lookup is bounded by a timeout; callers treat any error as
// "use the built-in default".
package cdn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "apply-portal/internal/common/errors"
	apphttp "apply-portal/internal/common/http"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/metrics"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound = errors.New("CDN_NOT_FOUND")
	ErrStatus   = errors.New("CDN_BAD_STATUS")
)

const (
	cacheKeyPrefix = "cdn:"
	probePresent   = "1"
	probeAbsent    = "0"
)

// Cache is the cache-aside store; database.RedisClient satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Getter is the read side used by the loaders.
type Getter interface {
	GetJSON(ctx context.Context, url string) ([]byte, error)
	Exists(ctx context.Context, url string) bool
}

type Fetcher struct {
	client  *apphttp.Client
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
	logger  logger.Logger
	group   singleflight.Group
}

// NewFetcher builds a fetcher. cache may be nil; ttl <= 0 also disables it.
func NewFetcher(client *apphttp.Client, cache Cache, ttl, timeout time.Duration, log logger.Logger) *Fetcher {
	if ttl <= 0 {
		cache = nil
	}
	return &Fetcher{
		client:  client,
		cache:   cache,
		ttl:     ttl,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "cdn"}),
	}
}

// GetJSON returns the body of url when it answers 2xx.
func (f *Fetcher) GetJSON(ctx context.Context, url string) ([]byte, error) {
	key := cacheKeyPrefix + url
	if body, ok := f.cached(ctx, key); ok {
		metrics.CDNFetches.WithLabelValues("json", "cache_hit").Inc()
		return []byte(body), nil
	}

	v, err, _ := f.group.Do("json:"+url, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()

		resp, err := f.client.Get(ctx, url, map[string]string{"Accept": "application/json"})
		if err != nil {
			return nil, apperrors.NewCDNFetchError(url, err)
		}
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		if !resp.OK() {
			return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
		}

		f.store(ctx, key, string(resp.Body))
		return resp.Body, nil
	})
	if err != nil {
		result := "error"
		if errors.Is(err, ErrNotFound) {
			result = "not_found"
		}
		metrics.CDNFetches.WithLabelValues("json", result).Inc()
		f.logger.Debug("cdn fetch failed", map[string]interface{}{"url": url, "error": err.Error()})
		return nil, err
	}

	metrics.CDNFetches.WithLabelValues("json", "ok").Inc()
	return v.([]byte), nil
}

// Exists probes url with HEAD. Both outcomes are cached.
func (f *Fetcher) Exists(ctx context.Context, url string) bool {
	key := cacheKeyPrefix + "head:" + url
	if v, ok := f.cached(ctx, key); ok {
		metrics.CDNFetches.WithLabelValues("head", "cache_hit").Inc()
		return v == probePresent
	}

	v, err, _ := f.group.Do("head:"+url, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()

		status, err := f.client.Head(ctx, url)
		if err != nil {
			return false, err
		}
		present := status >= 200 && status < 300
		if present {
			f.store(ctx, key, probePresent)
		} else {
			f.store(ctx, key, probeAbsent)
		}
		return present, nil
	})
	if err != nil {
		metrics.CDNFetches.WithLabelValues("head", "error").Inc()
		f.logger.Debug("cdn probe failed", map[string]interface{}{"url": url, "error": err.Error()})
		return false
	}

	present := v.(bool)
	if present {
		metrics.CDNFetches.WithLabelValues("head", "ok").Inc()
	} else {
		metrics.CDNFetches.WithLabelValues("head", "not_found").Inc()
	}
	return present
}

func (f *Fetcher) cached(ctx context.Context, key string) (string, bool) {
	if f.cache == nil {
		return "", false
	}
	val, err := f.cache.Get(ctx, key)
	if err != nil {
		return "", false
	}
	return val, true
}

// store is best effort; a failing cache never fails a lookup.
func (f *Fetcher) store(ctx context.Context, key, value string) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, key, value, f.ttl); err != nil {
		f.logger.Warn("cdn cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
