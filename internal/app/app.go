// Package app wires configuration into a ready dashboard service. Both the
// API server and the report CLI start from here.
package app

import (
	"context"
	"fmt"

	"shale-dashboard/internal/config"
	"shale-dashboard/internal/repository"
	"shale-dashboard/internal/services"
	"shale-dashboard/pkg/database"
	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

// App holds the long-lived components built from one configuration.
type App struct {
	Config     *config.Config
	Repository repository.WellDataRepository
	Loader     *services.LoaderService
	Dashboard  *services.DashboardService

	db *database.PostgresDB
}

// New builds the repository selected by cfg.Source.Kind and the services on
// top of it. A database connection is only opened for the postgres source.
func New(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*App, error) {
	a := &App{Config: cfg}

	var querier repository.Querier
	if cfg.Source.Kind == config.SourcePostgres {
		db, err := database.NewPostgresDB(ctx, DatabaseConfig(cfg.Database), logger, metricsCollector)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		querier = db
	}

	repo, err := repository.NewFromConfig(cfg, querier, logger, metricsCollector)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create repository: %w", err)
	}
	a.Repository = repo

	a.Loader = services.NewLoaderService(repo, logger, metricsCollector)
	// a session lives as long as the fetched tables stay cached
	a.Dashboard = services.NewDashboardService(a.Loader, cfg.Pipeline, cfg.Source.CacheTTL, logger, metricsCollector)

	logger.Info(ctx, "[APP_READY] Components initialized", logging.Fields{
		"source":      repo.Kind(),
		"formation":   cfg.Pipeline.TargetFormation,
		"sub_type":    cfg.Pipeline.TargetSubType,
		"session_ttl": cfg.Source.CacheTTL.String(),
	})

	return a, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// DatabaseConfig converts the configuration section to the connection settings.
func DatabaseConfig(c config.DatabaseConfig) *database.Config {
	return &database.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
}
