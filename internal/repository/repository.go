package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	gobreaker "github.com/sony/gobreaker/v2"

	"shale-dashboard/internal/models"
)

// Table names used in logs, metrics and errors.
const (
	TableProduction = "production"
	TableFracture   = "fracture"
)

// WellDataRepository provides the two raw tables the dashboard is built from.
// A load either returns every row of a table or an error; there are no partial results.
type WellDataRepository interface {
	LoadProduction(ctx context.Context) ([]*models.RawProductionRecord, error)
	LoadFractures(ctx context.Context) ([]*models.RawFractureRecord, error)

	// Kind names the source ("http", "file", "postgres").
	Kind() string
	HealthCheck(ctx context.Context) error
}

// Invalidator is implemented by repositories that keep fetched data between
// loads. Invalidate makes the next load go back to the source.
type Invalidator interface {
	Invalidate()
}

// LoadError reports a table that could not be fetched or decoded.
type LoadError struct {
	Table  string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s table from %s: %v", e.Table, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether retrying the load later may succeed.
func (e *LoadError) IsTransient() bool {
	var statusErr *HTTPStatusError
	if errors.As(e.Err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == 429
	}

	var netErr net.Error
	return errors.Is(e.Err, gobreaker.ErrOpenState) ||
		errors.Is(e.Err, gobreaker.ErrTooManyRequests) ||
		errors.Is(e.Err, context.DeadlineExceeded) ||
		errors.As(e.Err, &netErr)
}

// HTTPStatusError is a non-2xx response from a remote source.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
