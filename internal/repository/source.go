package repository

import (
	"fmt"

	"shale-dashboard/internal/config"
	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

// NewFromConfig builds the repository selected by cfg.Source.Kind. db is
// only used by the postgres source and may be nil otherwise.
func NewFromConfig(cfg *config.Config, db Querier, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (WellDataRepository, error) {
	src := cfg.Source

	switch src.Kind {
	case config.SourceHTTP:
		fetcher := NewHTTPFetcher(HTTPFetcherConfig{
			Name:        "open-data",
			Timeout:     src.HTTPTimeout,
			MaxFailures: src.BreakerMaxFailures,
			OpenTimeout: src.BreakerOpenTimeout,
		}, logger, metricsCollector)
		cached := NewCachedFetcher(fetcher, src.CacheTTL, metricsCollector)
		return NewCSVRepository(cached, src.Kind, src.ProductionURL, src.FractureURL, logger, metricsCollector), nil

	case config.SourceFile:
		cached := NewCachedFetcher(FileFetcher{}, src.CacheTTL, metricsCollector)
		return NewCSVRepository(cached, src.Kind, src.ProductionURL, src.FractureURL, logger, metricsCollector), nil

	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres source requires a database connection")
		}
		return NewPostgresRepository(db, cfg.Database.ProductionTable, cfg.Database.FractureTable, logger, metricsCollector)

	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}
