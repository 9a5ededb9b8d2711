package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request id to the context and response, reusing a
// well-formed incoming one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// RateLimiter rejects requests above a global token-bucket rate with 429.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRateLimiter allows perSecond requests with bursts of burst. A
// non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Middleware wraps next with the limiter.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			l.metrics.APIRateLimited.Inc()
			l.logger.Warn(r.Context(), "[API_RATE_LIMITED] Request rejected", logging.Fields{
				"path": r.URL.Path,
			})
			w.Header().Set("Retry-After", "1")
			writeJSON(w, ErrorResponse{
				Error:   http.StatusText(http.StatusTooManyRequests),
				Message: "rate limit exceeded",
				Code:    http.StatusTooManyRequests,
			}, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
