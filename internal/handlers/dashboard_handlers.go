package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"shale-dashboard/internal/models"
	"shale-dashboard/internal/ranking"
	"shale-dashboard/internal/repository"
	"shale-dashboard/internal/services"
	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// DashboardHandler serves the dashboard views over HTTP.
type DashboardHandler struct {
	dashboard *services.DashboardService
	validate  *validator.Validate
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *services.DashboardService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		validate:  validator.New(),
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// viewQuery holds the optional selectors shared by the ranking endpoints.
type viewQuery struct {
	Year  int    `validate:"omitempty,min=1900,max=2200"`
	Fluid string `validate:"omitempty,oneof=oil gas"`
	By    string `validate:"omitempty,oneof=well operator"`
}

func (q viewQuery) fluid() ranking.Fluid {
	if q.Fluid == "" {
		return ranking.FluidOil
	}
	return ranking.Fluid(q.Fluid)
}

func (q viewQuery) byOperator() bool {
	return q.By == "operator"
}

type wellsQuery struct {
	Page     int    `validate:"min=1"`
	Limit    int    `validate:"min=1,max=1000"`
	Year     int    `validate:"omitempty,min=1900,max=2200"`
	Operator string `validate:"max=200"`
}

// tableView produces one table from the parsed query.
type tableView func(ctx context.Context, q viewQuery) (*ranking.Table, error)

// RegisterRoutes registers all dashboard routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/report/headline", h.table("headline", func(ctx context.Context, _ viewQuery) (*ranking.Table, error) {
		return h.dashboard.Headline(ctx)
	})).Methods("GET")
	api.HandleFunc("/report/top-wells", h.table("top_wells", func(ctx context.Context, q viewQuery) (*ranking.Table, error) {
		return h.dashboard.TopWells(ctx, q.fluid())
	})).Methods("GET")
	api.HandleFunc("/report/operators", h.table("operator_series", func(ctx context.Context, _ viewQuery) (*ranking.Table, error) {
		return h.dashboard.OperatorSeries(ctx)
	})).Methods("GET")
	api.HandleFunc("/report/vintages", h.table("vintage_series", func(ctx context.Context, _ viewQuery) (*ranking.Table, error) {
		return h.dashboard.VintageSeries(ctx)
	})).Methods("GET")
	api.HandleFunc("/report/well-counts", h.table("well_counts", func(ctx context.Context, _ viewQuery) (*ranking.Table, error) {
		return h.dashboard.WellCounts(ctx)
	})).Methods("GET")
	api.HandleFunc("/watchlist", h.table("watchlist", func(ctx context.Context, q viewQuery) (*ranking.Table, error) {
		return h.dashboard.Watchlist(ctx, q.fluid())
	})).Methods("GET")

	api.HandleFunc("/rankings/years", h.ActivityYears).Methods("GET")
	api.HandleFunc("/rankings/activity", h.table("activity", func(ctx context.Context, q viewQuery) (*ranking.Table, error) {
		return h.dashboard.Activity(ctx, q.Year, q.fluid())
	})).Methods("GET")
	api.HandleFunc("/rankings/lateral-length", h.table("lateral_length", func(ctx context.Context, q viewQuery) (*ranking.Table, error) {
		return h.dashboard.LateralLength(ctx, q.byOperator())
	})).Methods("GET")
	api.HandleFunc("/rankings/peak-rate", h.table("peak_rate", func(ctx context.Context, q viewQuery) (*ranking.Table, error) {
		return h.dashboard.PeakRate(ctx, q.fluid(), q.byOperator())
	})).Methods("GET")
	api.HandleFunc("/rankings/proppant", h.table("proppant", func(ctx context.Context, q viewQuery) (*ranking.Table, error) {
		return h.dashboard.Proppant(ctx, q.byOperator())
	})).Methods("GET")

	api.HandleFunc("/wells", h.ListWells).Methods("GET")
	api.HandleFunc("/wells/{sigla}", h.GetWell).Methods("GET")

	api.HandleFunc("/refresh", h.Refresh).Methods("POST")
}

// HealthCheck reports data source reachability and the current session, without building one.
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	if err := h.dashboard.HealthCheck(ctx); err != nil {
		health["status"] = "unhealthy"
		health["source_error"] = err.Error()
		h.sendJSON(w, health, http.StatusServiceUnavailable)
		return
	}

	if session := h.dashboard.Current(); session != nil {
		health["session"] = map[string]interface{}{
			"id":       session.ID,
			"built_at": session.BuiltAt,
			"wells":    session.Pipeline.WellCount(),
			"source":   session.Load.Source,
		}
	}

	h.sendJSON(w, health, http.StatusOK)
}

// table adapts a tableView into a handler with query validation, metrics and error mapping.
func (h *DashboardHandler) table(endpoint string, view tableView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}()

		q, err := h.parseViewQuery(r)
		if err != nil {
			h.fail(w, r, endpoint, err)
			return
		}

		t, err := view(r.Context(), q)
		if err != nil {
			h.fail(w, r, endpoint, err)
			return
		}

		h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
		h.sendJSON(w, t, http.StatusOK)
	}
}

// ActivityYears lists the two years the activity rankings cover.
func (h *DashboardHandler) ActivityYears(w http.ResponseWriter, r *http.Request) {
	const endpoint = "activity_years"
	start := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	years, err := h.dashboard.ActivityYears(r.Context())
	if err != nil {
		h.fail(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, map[string]interface{}{"years": years}, http.StatusOK)
}

// ListWells handles GET /api/wells
func (h *DashboardHandler) ListWells(w http.ResponseWriter, r *http.Request) {
	const endpoint = "list_wells"
	start := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	q, err := h.parseWellsQuery(r)
	if err != nil {
		h.fail(w, r, endpoint, err)
		return
	}

	wells, total, err := h.dashboard.ListWells(r.Context(), services.WellFilter{
		Operator: q.Operator,
		Year:     q.Year,
		Limit:    q.Limit,
		Offset:   (q.Page - 1) * q.Limit,
	})
	if err != nil {
		h.fail(w, r, endpoint, err)
		return
	}

	totalPages := (total + q.Limit - 1) / q.Limit

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       wells,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}, http.StatusOK)
}

// GetWell handles GET /api/wells/{sigla}
func (h *DashboardHandler) GetWell(w http.ResponseWriter, r *http.Request) {
	const endpoint = "get_well"
	start := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	sigla := strings.TrimSpace(mux.Vars(r)["sigla"])
	if sigla == "" {
		h.fail(w, r, endpoint, &models.ValidationError{Field: "sigla", Message: "well identifier is required"})
		return
	}

	detail, err := h.dashboard.Well(r.Context(), sigla)
	if err != nil {
		h.fail(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, detail, http.StatusOK)
}

// Refresh handles POST /api/refresh by rebuilding the session from the source.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	const endpoint = "refresh"
	start := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	session, err := h.dashboard.Refresh(r.Context())
	if err != nil {
		h.fail(w, r, endpoint, err)
		return
	}

	h.logger.Info(r.Context(), "[API_REFRESH] Session rebuilt", logging.Fields{
		"session_id": session.ID,
	})

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, map[string]interface{}{
		"session_id": session.ID,
		"built_at":   session.BuiltAt,
		"wells":      session.Pipeline.WellCount(),
	}, http.StatusOK)
}

func (h *DashboardHandler) parseViewQuery(r *http.Request) (viewQuery, error) {
	values := r.URL.Query()
	q := viewQuery{
		Fluid: strings.ToLower(values.Get("fluid")),
		By:    strings.ToLower(values.Get("by")),
	}

	year, err := intParam(values.Get("year"), "year", 0)
	if err != nil {
		return q, err
	}
	q.Year = year

	return q, h.check(q)
}

func (h *DashboardHandler) parseWellsQuery(r *http.Request) (wellsQuery, error) {
	values := r.URL.Query()
	q := wellsQuery{Operator: strings.TrimSpace(values.Get("operator"))}

	var err error
	if q.Page, err = intParam(values.Get("page"), "page", 1); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values.Get("limit"), "limit", defaultPageLimit); err != nil {
		return q, err
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	if q.Year, err = intParam(values.Get("year"), "year", 0); err != nil {
		return q, err
	}

	return q, h.check(q)
}

// check runs struct validation and reports the first failing field.
func (h *DashboardHandler) check(q interface{}) error {
	err := h.validate.Struct(q)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &models.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Value:   fmt.Sprint(fe.Value()),
			Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
		}
	}
	return err
}

func intParam(raw, field string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.ValidationError{Field: field, Value: raw, Message: "must be an integer"}
	}
	return v, nil
}

// fail maps a service error to an HTTP status and writes it.
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	status, errorType := classify(err)

	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(status))
	h.metrics.RecordAPIError(errorType, endpoint)

	fields := logging.Fields{
		"endpoint": endpoint,
		"status":   status,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "[API_ERROR] Request failed", fields, err)
	} else {
		h.logger.Debug(r.Context(), "[API_REJECTED] Request rejected", fields)
	}

	h.sendError(w, http.StatusText(status), err.Error(), status)
}

func classify(err error) (int, string) {
	var (
		serr  *services.SessionError
		nferr *repository.NotFoundError
		verr  *models.ValidationError
	)
	switch {
	case errors.As(err, &serr):
		if serr.IsTransient() {
			return http.StatusServiceUnavailable, "source_unavailable"
		}
		return http.StatusBadGateway, "source_error"
	case errors.As(err, &nferr):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	if err := writeJSON(w, data, statusCode); err != nil {
		h.logger.Error(context.Background(), "[API_ENCODE] Failed to encode response", nil, err)
	}
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, error, message string, code int) {
	h.sendJSON(w, ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	}, code)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
