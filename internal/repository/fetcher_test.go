package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

func TestHTTPFetcher(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("sigla\nW1\n"))
	}))
	defer server.Close()

	collector := metrics.NewNopCollector()
	f := NewHTTPFetcher(HTTPFetcherConfig{
		Name:        "test",
		Timeout:     time.Second,
		MaxFailures: 2,
		OpenTimeout: time.Hour,
	}, logging.NewNopLogger(), collector)

	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "sigla\nW1\n", string(body))

	fail.Store(true)
	for i := 0; i < 2; i++ {
		_, err = f.Fetch(context.Background(), server.URL)
		var statusErr *HTTPStatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	}

	assert.Equal(t, gobreaker.StateOpen, f.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.BreakerState.WithLabelValues("test")))

	fail.Store(false)
	_, err = f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState, "open breaker fails fast")

	lerr := &LoadError{Table: TableProduction, Source: server.URL, Err: err}
	assert.True(t, lerr.IsTransient())
}

type countingFetcher struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(location), nil
}

func TestCachedFetcher_TTL(t *testing.T) {
	next := &countingFetcher{}
	collector := metrics.NewNopCollector()
	c := NewCachedFetcher(next, time.Minute, collector)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		data, err := c.Fetch(context.Background(), "a.csv")
		require.NoError(t, err)
		assert.Equal(t, "a.csv", string(data))
	}
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.SourceCacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.SourceCacheRequests.WithLabelValues("miss")))

	_, err := c.Fetch(context.Background(), "b.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load(), "keyed by location")

	now = now.Add(time.Minute)
	_, err = c.Fetch(context.Background(), "a.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.calls.Load(), "expired entry is refetched")

	c.Invalidate()
	_, err = c.Fetch(context.Background(), "a.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(4), next.calls.Load())
}

func TestCachedFetcher_ZeroTTLKeepsUntilInvalidated(t *testing.T) {
	next := &countingFetcher{}
	c := NewCachedFetcher(next, 0, metrics.NewNopCollector())

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Fetch(context.Background(), "a.csv")
	require.NoError(t, err)
	now = now.Add(24 * time.Hour)
	_, err = c.Fetch(context.Background(), "a.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.calls.Load())

	c.Invalidate()
	_, err = c.Fetch(context.Background(), "a.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCSVRepository_InvalidateReachesFetcher(t *testing.T) {
	next := &countingFetcher{}
	collector := metrics.NewNopCollector()
	repo := NewCSVRepository(NewCachedFetcher(next, time.Hour, collector), "file", "p.csv", "f.csv", logging.NewNopLogger(), collector)

	inv, ok := repo.(Invalidator)
	require.True(t, ok)

	// the bodies are not valid tables; only the fetch count matters here
	_, _ = repo.LoadProduction(context.Background())
	_, _ = repo.LoadProduction(context.Background())
	assert.Equal(t, int32(1), next.calls.Load())

	inv.Invalidate()
	_, _ = repo.LoadProduction(context.Background())
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	next := &countingFetcher{err: errors.New("boom")}
	c := NewCachedFetcher(next, time.Minute, metrics.NewNopCollector())

	_, err := c.Fetch(context.Background(), "a.csv")
	require.Error(t, err)
	_, err = c.Fetch(context.Background(), "a.csv")
	require.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedFetcher_CollapsesConcurrentMisses(t *testing.T) {
	next := &countingFetcher{gate: make(chan struct{})}
	c := NewCachedFetcher(next, time.Minute, metrics.NewNopCollector())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.Fetch(context.Background(), "a.csv")
			if err == nil {
				results[i] = string(data)
			}
		}()
	}

	// let every caller reach the shared flight before releasing it
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.gate)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "a.csv", r)
	}
	assert.Equal(t, int32(1), next.calls.Load())
}
