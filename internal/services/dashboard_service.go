package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"shale-dashboard/internal/config"
	"shale-dashboard/internal/models"
	"shale-dashboard/internal/pipeline"
	"shale-dashboard/internal/ranking"
	"shale-dashboard/internal/repository"
	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

// sessionBuildTimeout bounds a build that no caller can cancel.
const sessionBuildTimeout = 10 * time.Minute

// Session is one pipeline pass over one load. It is immutable and shared by
// every request served while it is current.
type Session struct {
	ID       string
	Pipeline *pipeline.Pipeline
	Load     *LoadResult
	BuiltAt  time.Time
}

// DashboardService builds sessions and assembles the views of the dashboard.
type DashboardService struct {
	loader  *LoaderService
	cfg     config.PipelineConfig
	opts    pipeline.Options
	maxAge  time.Duration
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	now   func() time.Time
	mu    sync.RWMutex
	cur   *Session
	group singleflight.Group
}

// NewDashboardService creates a dashboard service. A session is rebuilt once
// it is older than maxAge; zero keeps it until Refresh.
func NewDashboardService(loader *LoaderService, cfg config.PipelineConfig, maxAge time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	return &DashboardService{
		loader:  loader,
		cfg:     cfg,
		opts:    PipelineOptions(cfg),
		maxAge:  maxAge,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// PipelineOptions translates the pipeline configuration.
func PipelineOptions(cfg config.PipelineConfig) pipeline.Options {
	aliases := make(map[string]string, len(cfg.OperatorAliases))
	for _, a := range cfg.OperatorAliases {
		aliases[a.Raw] = a.Canonical
	}
	return pipeline.Options{
		Operators: pipeline.NewOperatorCanonicalizer(aliases),
		Activity:  pipeline.ActivityFilter{Formation: cfg.TargetFormation, SubType: cfg.TargetSubType},
		Workers:   cfg.Workers,
	}
}

// Session returns the current session, building one when there is none or
// it has expired. Concurrent callers share one build.
func (s *DashboardService) Session(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()

	if cur != nil && (s.maxAge <= 0 || s.now().Sub(cur.BuiltAt) < s.maxAge) {
		return cur, nil
	}
	return s.rebuild(ctx)
}

// SessionError reports that no session could be built; the dashboard shows a
// single blocking error instead of partial views.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("dashboard data unavailable: %v", e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether a later rebuild may succeed.
func (e *SessionError) IsTransient() bool {
	var lerr *repository.LoadError
	return errors.As(e.Err, &lerr) && lerr.IsTransient()
}

// Current returns the current session without building one; nil before the first build.
func (s *DashboardService) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// HealthCheck checks the raw data source.
func (s *DashboardService) HealthCheck(ctx context.Context) error {
	return s.loader.HealthCheck(ctx)
}

// Refresh drops cached source data and builds a new session unconditionally.
func (s *DashboardService) Refresh(ctx context.Context) (*Session, error) {
	s.loader.Invalidate(ctx)
	return s.rebuild(ctx)
}

// rebuild shares one build between concurrent callers. The build runs
// detached from the caller that started it, so a disconnecting client does
// not fail the others; each caller still stops waiting when its own ctx ends.
func (s *DashboardService) rebuild(ctx context.Context) (*Session, error) {
	ch := s.group.DoChan("session", func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionBuildTimeout)
		defer cancel()

		session, err := s.build(buildCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cur = session
		s.mu.Unlock()
		return session, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *DashboardService) build(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	ctx = logging.ContextWithSessionID(ctx, id)

	load, err := s.loader.Load(ctx)
	if err != nil {
		s.metrics.PipelineBuildsTotal.WithLabelValues("load_error").Inc()
		return nil, &SessionError{Err: err}
	}

	timer := s.metrics.NewTimer(s.metrics.PipelineBuildDuration)
	p, err := pipeline.Build(ctx, load.Production, load.Fractures, s.opts)
	duration := timer.ObserveDuration()
	if err != nil {
		s.metrics.PipelineBuildsTotal.WithLabelValues("build_error").Inc()
		s.logger.Error(ctx, "[PIPELINE_ERROR] Pipeline build failed", logging.Fields{
			"production_rows": len(load.Production),
		}, err)
		return nil, &SessionError{Err: fmt.Errorf("build pipeline: %w", err)}
	}

	s.metrics.PipelineBuildsTotal.WithLabelValues("success").Inc()
	s.metrics.WellsSummarized.Set(float64(p.WellCount()))
	s.metrics.CompletionsAccepted.Set(float64(len(p.Completions)))
	s.metrics.CompletionsRejected.Set(float64(p.RejectedCompletions))

	s.logger.Info(ctx, "[PIPELINE_BUILT] Session pipeline ready", logging.Fields{
		"wells":                len(p.Summaries),
		"records":              len(p.Records),
		"completions":          len(p.Completions),
		"completions_rejected": p.RejectedCompletions,
		"activity_rows":        len(p.Activity),
		"duration_ms":          duration.Milliseconds(),
	})

	return &Session{ID: id, Pipeline: p, Load: load, BuiltAt: s.now()}, nil
}

func (s *DashboardService) pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	return session.Pipeline, nil
}

// Headline returns the consolidated basin totals.
func (s *DashboardService) Headline(ctx context.Context) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	h, _ := ranking.ComputeHeadline(p, s.cfg.ConsolidationLagMonths)
	return ranking.HeadlineTable(h), nil
}

// TopWells returns the latest-month leaders for one fluid.
func (s *DashboardService) TopWells(ctx context.Context, fluid ranking.Fluid) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	gas, oil := ranking.TopWellsTables(ranking.TopWellsLatest(p, s.cfg.TopPerYear))
	if fluid == ranking.FluidOil {
		return oil, nil
	}
	return gas, nil
}

// OperatorSeries returns per-operator monthly rates.
func (s *DashboardService) OperatorSeries(ctx context.Context) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.OperatorSeriesTable(ranking.OperatorSeries(p, s.cfg.TopOperators)), nil
}

// VintageSeries returns per-start-year monthly rates.
func (s *DashboardService) VintageSeries(ctx context.Context) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.VintageSeriesTable(ranking.VintageSeries(p)), nil
}

// WellCounts returns producing wells per operator.
func (s *DashboardService) WellCounts(ctx context.Context) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.WellCountsTable(ranking.WellCounts(p, s.cfg.TopOperators)), nil
}

// Watchlist returns the history of the record well for one fluid.
func (s *DashboardService) Watchlist(ctx context.Context, fluid ranking.Fluid) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	w := ranking.BuildWatchlist(p)
	if fluid == ranking.FluidOil {
		return ranking.WatchlistTable("Historia de Producción de Petróleo", w.Oil), nil
	}
	return ranking.WatchlistTable("Historia de Producción de Gas", w.Gas), nil
}

// ActivityYears returns the selectable activity years, latest first.
func (s *DashboardService) ActivityYears(ctx context.Context) ([]int, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.ActivityYears(p.Activity), nil
}

// Activity returns wells per operator for one fluid in year. Zero selects the
// latest year; other years must be one of ActivityYears.
func (s *DashboardService) Activity(ctx context.Context, year int, fluid ranking.Fluid) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}

	years := ranking.ActivityYears(p.Activity)
	if len(years) == 0 {
		return ranking.WellsPerOperatorTable(year, fluid.Label(), nil), nil
	}
	if year == 0 {
		year = years[0]
	}
	if year != years[0] && year != years[1] {
		return nil, &models.ValidationError{
			Field:   "year",
			Value:   fmt.Sprint(year),
			Message: fmt.Sprintf("year must be %d or %d", years[0], years[1]),
		}
	}

	counts := ranking.WellsPerOperator(p.Activity, year, fluid.Label(), s.cfg.TopOperators)
	return ranking.WellsPerOperatorTable(year, fluid.Label(), counts), nil
}

// LateralLength returns the branch length ranking per well or per operator.
func (s *DashboardService) LateralLength(ctx context.Context, byOperator bool) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	if byOperator {
		return ranking.LateralLengthOperatorTable(ranking.LateralLengthByOperator(p.Activity, s.cfg.TopPerYear)), nil
	}
	return ranking.LateralLengthWellTable(ranking.LateralLengthByWell(p.Activity, s.cfg.TopPerYear)), nil
}

// PeakRate returns the peak-rate ranking for one fluid per well or per operator.
func (s *DashboardService) PeakRate(ctx context.Context, fluid ranking.Fluid, byOperator bool) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	if byOperator {
		return ranking.PeakRateOperatorTable(fluid, ranking.PeakRateByOperator(p.Activity, fluid, s.cfg.TopPerYear)), nil
	}
	return ranking.PeakRateWellTable(fluid, ranking.PeakRateByWell(p.Activity, fluid, s.cfg.TopPerYear)), nil
}

// Proppant returns the proppant ranking per well or per operator.
func (s *DashboardService) Proppant(ctx context.Context, byOperator bool) (*ranking.Table, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	if byOperator {
		return ranking.ProppantOperatorTable(ranking.ProppantByOperator(p.Activity, s.cfg.TopPerYear)), nil
	}
	return ranking.ProppantWellTable(ranking.ProppantByWell(p.Activity, s.cfg.TopPerYear)), nil
}

// WellFilter selects and pages well summaries.
type WellFilter struct {
	Operator string
	Year     int
	Limit    int
	Offset   int
}

// ListWells returns summaries matching filter ordered by sigla, and the total match count.
func (s *DashboardService) ListWells(ctx context.Context, filter WellFilter) ([]*models.WellSummary, int, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, 0, err
	}

	var matched []*models.WellSummary
	for _, w := range p.Summaries {
		if filter.Operator != "" && !strings.EqualFold(w.Operator, filter.Operator) {
			continue
		}
		if filter.Year != 0 && w.StartYear != filter.Year {
			continue
		}
		matched = append(matched, w)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Sigla < matched[j].Sigla })

	total := len(matched)
	if filter.Offset >= total {
		return []*models.WellSummary{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < total {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

// WellDetail is everything known about one well.
type WellDetail struct {
	Summary     *models.WellSummary        `json:"summary"`
	Completions []*models.CompletionRecord `json:"completions"`
	History     *ranking.Table             `json:"history"`
}

// Well returns one well's detail, or a repository.NotFoundError.
func (s *DashboardService) Well(ctx context.Context, sigla string) (*WellDetail, error) {
	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}

	summary, ok := p.Summary(sigla)
	if !ok {
		return nil, &repository.NotFoundError{Resource: "well", ID: sigla}
	}
	records, _ := p.WellRecords(sigla)

	detail := &WellDetail{
		Summary:     summary,
		Completions: []*models.CompletionRecord{},
		History:     ranking.WellHistoryTable(sigla, records),
	}
	for _, c := range p.Completions {
		if c.Sigla == sigla {
			detail.Completions = append(detail.Completions, c)
		}
	}
	return detail, nil
}

// AllViews assembles every dashboard table for one activity year (zero for
// the latest), in report order.
func (s *DashboardService) AllViews(ctx context.Context, year int) ([]*ranking.Table, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	p := session.Pipeline

	// every view of one report comes from the same session
	pinned := &DashboardService{cfg: s.cfg, opts: s.opts, logger: s.logger, metrics: s.metrics, now: s.now, cur: session}

	var tables []*ranking.Table
	add := func(t *ranking.Table, err error) error {
		if err != nil {
			return err
		}
		tables = append(tables, t)
		return nil
	}

	steps := []func() error{
		func() error { return add(pinned.Headline(ctx)) },
		func() error { return add(pinned.TopWells(ctx, ranking.FluidGas)) },
		func() error { return add(pinned.TopWells(ctx, ranking.FluidOil)) },
		func() error { return add(pinned.WellCounts(ctx)) },
		func() error { return add(pinned.Activity(ctx, year, ranking.FluidOil)) },
		func() error { return add(pinned.Activity(ctx, year, ranking.FluidGas)) },
		func() error { return add(pinned.LateralLength(ctx, false)) },
		func() error { return add(pinned.LateralLength(ctx, true)) },
		func() error { return add(pinned.PeakRate(ctx, ranking.FluidOil, false)) },
		func() error { return add(pinned.PeakRate(ctx, ranking.FluidGas, false)) },
		func() error { return add(pinned.PeakRate(ctx, ranking.FluidOil, true)) },
		func() error { return add(pinned.PeakRate(ctx, ranking.FluidGas, true)) },
		func() error { return add(pinned.Proppant(ctx, false)) },
		func() error { return add(pinned.Proppant(ctx, true)) },
		func() error { return add(pinned.Watchlist(ctx, ranking.FluidGas)) },
		func() error { return add(pinned.Watchlist(ctx, ranking.FluidOil)) },
		func() error { return add(pinned.OperatorSeries(ctx)) },
		func() error { return add(pinned.VintageSeries(ctx)) },
		func() error { return add(ranking.FluidSummaryTable(p.Summaries), nil) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return tables, nil
}
