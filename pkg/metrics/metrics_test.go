package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("test", prometheus.NewRegistry())

	c.RecordAPIRequest("/api/wells", "GET", "200")
	c.RecordAPIRequest("/api/wells", "GET", "200")
	c.RecordAPIError("internal_error", "/api/wells")
	c.RecordSourceError("production", "parse_error")
	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.RecordCacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/api/wells", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIErrorsTotal.WithLabelValues("internal_error", "/api/wells")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SourceErrorsTotal.WithLabelValues("production", "parse_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SourceCacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.SourceCacheRequests.WithLabelValues("miss")))
}

func TestCollector_IndependentRegistries(t *testing.T) {
	// Two collectors with the same namespace must not collide.
	a := NewNopCollector()
	b := NewNopCollector()
	a.WellsSummarized.Set(3)
	b.WellsSummarized.Set(5)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.WellsSummarized))
	assert.Equal(t, 5.0, testutil.ToFloat64(b.WellsSummarized))
}

func TestCollector_DBPool(t *testing.T) {
	c := NewNopCollector()
	c.UpdateDBConnectionPool(2, 3, 5)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("in_use")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("total")))
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewNopCollector()
	timer := c.NewTimer(c.PipelineBuildDuration)
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()
	assert.Greater(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.PipelineBuildDuration))
}
