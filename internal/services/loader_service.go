package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"shale-dashboard/internal/models"
	"shale-dashboard/internal/repository"
	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

// LoaderService loads and validates both raw tables.
type LoaderService struct {
	repo    repository.WellDataRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// LoadResult holds one complete, validated load.
type LoadResult struct {
	Production []*models.WellMonthRecord
	Fractures  []*models.RawFractureRecord
	Source     string
	LoadedAt   time.Time
	Duration   time.Duration
}

// NewLoaderService creates a new loader service
func NewLoaderService(repo repository.WellDataRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *LoaderService {
	return &LoaderService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Load fetches both tables concurrently. Any failure cancels the other fetch
// and fails the whole load; there is no partial result.
func (s *LoaderService) Load(ctx context.Context) (*LoadResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[LOAD_START] Loading source tables", logging.Fields{
		"source": s.repo.Kind(),
		"stage":  "INITIALIZATION",
	})

	var (
		production []*models.WellMonthRecord
		fractures  []*models.RawFractureRecord
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		raw, err := s.repo.LoadProduction(gctx)
		if err != nil {
			return err
		}

		records := make([]*models.WellMonthRecord, 0, len(raw))
		for _, r := range raw {
			rec, err := r.ToMonthRecord()
			if err != nil {
				s.metrics.RecordSourceError(repository.TableProduction, "validation_error")
				return fmt.Errorf("validate production table: %w", err)
			}
			records = append(records, rec)
		}
		production = records

		s.logger.Info(ctx, "[LOAD_TABLE] Production table loaded", logging.Fields{
			"rows":  len(records),
			"stage": "PRODUCTION",
		})
		return nil
	})

	g.Go(func() error {
		raw, err := s.repo.LoadFractures(gctx)
		if err != nil {
			return err
		}
		fractures = raw

		s.logger.Info(ctx, "[LOAD_TABLE] Fracture table loaded", logging.Fields{
			"rows":  len(raw),
			"stage": "FRACTURE",
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error(ctx, "[LOAD_ERROR] Source load failed", logging.Fields{
			"source": s.repo.Kind(),
			"stage":  "FAILED",
		}, err)
		return nil, err
	}

	result := &LoadResult{
		Production: production,
		Fractures:  fractures,
		Source:     s.repo.Kind(),
		LoadedAt:   time.Now().UTC(),
		Duration:   time.Since(startTime),
	}

	s.logger.Info(ctx, "[LOAD_COMPLETE] Source tables loaded", logging.Fields{
		"production_rows":  len(production),
		"fracture_rows":    len(fractures),
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// Invalidate drops data the repository keeps between loads so the next Load
// reads the source again.
func (s *LoaderService) Invalidate(ctx context.Context) {
	inv, ok := s.repo.(repository.Invalidator)
	if !ok {
		return
	}
	inv.Invalidate()
	s.logger.Info(ctx, "[LOAD_INVALIDATE] Cached source tables dropped", logging.Fields{
		"source": s.repo.Kind(),
	})
}

// HealthCheck checks the underlying source.
func (s *LoaderService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
