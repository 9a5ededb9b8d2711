package repository

import (
	"context"
	"fmt"
	"regexp"

	"shale-dashboard/internal/models"
	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Querier is the read side of pkg/database.PostgresDB.
type Querier interface {
	SelectContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error
	HealthCheck(ctx context.Context) error
}

// postgresRepository reads the tables from a Postgres mirror of the open-data files.
type postgresRepository struct {
	db              Querier
	productionTable string
	fractureTable   string
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
}

// NewPostgresRepository creates a repository over the mirror tables. Table
// names are interpolated into queries and must be plain identifiers.
func NewPostgresRepository(db Querier, productionTable, fractureTable string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (WellDataRepository, error) {
	for _, name := range []string{productionTable, fractureTable} {
		if !tableNamePattern.MatchString(name) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}

	return &postgresRepository{
		db:              db,
		productionTable: productionTable,
		fractureTable:   fractureTable,
		logger:          logger,
		metrics:         metricsCollector,
	}, nil
}

func (r *postgresRepository) Kind() string {
	return "postgres"
}

// LoadProduction selects the production mirror ordered by well and month.
func (r *postgresRepository) LoadProduction(ctx context.Context) ([]*models.RawProductionRecord, error) {
	query := fmt.Sprintf(`
		SELECT sigla, anio, mes,
			COALESCE(prod_pet, 0) AS prod_pet,
			COALESCE(prod_gas, 0) AS prod_gas,
			COALESCE(prod_agua, 0) AS prod_agua,
			COALESCE(tef, 0) AS tef,
			COALESCE(empresa, '') AS empresa,
			COALESCE(areayacimiento, '') AS areayacimiento,
			coordenadax, coordenaday,
			COALESCE(formprod, '') AS formprod,
			COALESCE(sub_tipo_recurso, '') AS sub_tipo_recurso,
			COALESCE(tipopozo, '') AS tipopozo
		FROM %s
		ORDER BY sigla, anio, mes
	`, r.productionTable)

	var records []*models.RawProductionRecord
	if err := r.db.SelectContext(ctx, "load_production", &records, query); err != nil {
		r.metrics.RecordSourceError(TableProduction, "query_error")
		return nil, &LoadError{Table: TableProduction, Source: r.productionTable, Err: err}
	}

	r.metrics.SourceRowsLoaded.WithLabelValues(TableProduction).Set(float64(len(records)))
	r.logger.Debug(ctx, "[REPO_QUERY] Production table loaded", logging.Fields{
		"table": r.productionTable,
		"rows":  len(records),
	})
	return records, nil
}

// LoadFractures selects the fracture mirror.
func (r *postgresRepository) LoadFractures(ctx context.Context) ([]*models.RawFractureRecord, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(sigla, '') AS sigla,
			COALESCE(id_base_fractura_adjiv::text, '') AS id_base_fractura_adjiv,
			COALESCE(longitud_rama_horizontal_m, 0) AS longitud_rama_horizontal_m,
			COALESCE(cantidad_fracturas, 0) AS cantidad_fracturas,
			COALESCE(arena_bombeada_nacional_tn, 0) AS arena_bombeada_nacional_tn,
			COALESCE(arena_bombeada_importada_tn, 0) AS arena_bombeada_importada_tn
		FROM %s
	`, r.fractureTable)

	var records []*models.RawFractureRecord
	if err := r.db.SelectContext(ctx, "load_fractures", &records, query); err != nil {
		r.metrics.RecordSourceError(TableFracture, "query_error")
		return nil, &LoadError{Table: TableFracture, Source: r.fractureTable, Err: err}
	}

	r.metrics.SourceRowsLoaded.WithLabelValues(TableFracture).Set(float64(len(records)))
	r.logger.Debug(ctx, "[REPO_QUERY] Fracture table loaded", logging.Fields{
		"table": r.fractureTable,
		"rows":  len(records),
	})
	return records, nil
}

// HealthCheck performs a repository health check
func (r *postgresRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
