package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

// Fetcher returns the raw bytes stored at a location (URL or path).
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FileFetcher reads local files.
type FileFetcher struct{}

// Fetch reads the file at path.
func (FileFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// HTTPFetcherConfig configures an HTTPFetcher.
type HTTPFetcherConfig struct {
	Name        string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// HTTPFetcher downloads remote files behind a circuit breaker. After
// MaxFailures consecutive failures the breaker opens and fetches fail fast
// until OpenTimeout has passed.
type HTTPFetcher struct {
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	name    string
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewHTTPFetcher creates a fetcher with its own breaker.
func NewHTTPFetcher(cfg HTTPFetcherConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *HTTPFetcher {
	if cfg.Name == "" {
		cfg.Name = "open-data"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 1
	}

	f := &HTTPFetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		name:    cfg.Name,
		logger:  logger,
		metrics: metricsCollector,
	}

	metricsCollector.BreakerState.WithLabelValues(cfg.Name).Set(stateToFloat(gobreaker.StateClosed))

	f.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// a canceled caller says nothing about the remote side
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metricsCollector.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
			logger.Warn(context.Background(), "[SOURCE_BREAKER] State transition", logging.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return f
}

// Fetch downloads url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	})
}

// State returns the breaker state.
func (f *HTTPFetcher) State() gobreaker.State {
	return f.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type cacheEntry struct {
	data    []byte
	expires time.Time
}

// CachedFetcher is a read-through cache keyed by location. Entries live for
// ttl, or until Invalidate when ttl is zero; concurrent misses on one location
// share a single fetch. Failed fetches are not cached.
type CachedFetcher struct {
	next    Fetcher
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Collector

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCachedFetcher wraps next with a TTL cache.
func NewCachedFetcher(next Fetcher, ttl time.Duration, metricsCollector *metrics.Collector) *CachedFetcher {
	return &CachedFetcher{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		metrics: metricsCollector,
		entries: make(map[string]cacheEntry),
	}
}

// Fetch returns the cached bytes for location or fetches them.
func (c *CachedFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if data, ok := c.lookup(location); ok {
		c.metrics.RecordCacheLookup(true)
		return data, nil
	}
	c.metrics.RecordCacheLookup(false)

	v, err, _ := c.group.Do(location, func() (interface{}, error) {
		// a fetch that finished while we waited may have filled the entry
		if data, ok := c.lookup(location); ok {
			return data, nil
		}
		data, err := c.next.Fetch(ctx, location)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[location] = cacheEntry{data: data, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *CachedFetcher) lookup(location string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[location]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && !c.now().Before(e.expires) {
		delete(c.entries, location)
		return nil, false
	}
	return e.data, true
}

// Invalidate drops every cached entry.
func (c *CachedFetcher) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
