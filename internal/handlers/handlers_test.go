package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shale-dashboard/internal/config"
	"shale-dashboard/internal/models"
	"shale-dashboard/internal/repository"
	"shale-dashboard/internal/services"
	"shale-dashboard/pkg/logging"
	"shale-dashboard/pkg/metrics"
)

type stubRepository struct {
	production []*models.RawProductionRecord
	fractures  []*models.RawFractureRecord
	prodErr    error
	healthErr  error
}

func (r *stubRepository) LoadProduction(ctx context.Context) ([]*models.RawProductionRecord, error) {
	if r.prodErr != nil {
		return nil, r.prodErr
	}
	return r.production, nil
}

func (r *stubRepository) LoadFractures(ctx context.Context) ([]*models.RawFractureRecord, error) {
	return r.fractures, nil
}

func (r *stubRepository) Kind() string { return "stub" }

func (r *stubRepository) HealthCheck(ctx context.Context) error { return r.healthErr }

func stubFixture() *stubRepository {
	repo := &stubRepository{}
	wells := []struct {
		sigla, operator, wellType string
		year                      int
		oil, gas                  float64
	}{
		{"O1", "YPF S.A.", models.FluidOil, 2023, 300, 30},
		{"O2", "VISTA ENERGY ARGENTINA SAU", models.FluidOil, 2023, 500, 40},
		{"G1", "TECPETROL S.A.", models.FluidGas, 2024, 5, 900},
		{"G2", "TECPETROL S.A.", models.FluidGas, 2024, 4, 700},
	}
	for _, w := range wells {
		for m := 1; m <= 3; m++ {
			repo.production = append(repo.production, &models.RawProductionRecord{
				Sigla: w.sigla, Year: w.year, Month: m, OilVolume: w.oil, GasVolume: w.gas, WaterVolume: 1, TEF: 1,
				Operator: w.operator, Formation: "VMUT", ResourceSubType: "SHALE", WellType: w.wellType,
			})
		}
		repo.fractures = append(repo.fractures, &models.RawFractureRecord{
			Sigla: w.sigla, FractureID: w.sigla + "-1", BranchLengthM: 2500, StageCount: 40, ProppantNational: 4000,
		})
	}
	return repo
}

func newTestRouter(repo repository.WellDataRepository) (*mux.Router, *services.DashboardService) {
	cfg := config.PipelineConfig{
		TargetFormation:        "VMUT",
		TargetSubType:          "SHALE",
		ConsolidationLagMonths: 1,
		TopPerYear:             3,
		TopOperators:           10,
	}
	loader := services.NewLoaderService(repo, logging.NewNopLogger(), metrics.NewNopCollector())
	dashboard := services.NewDashboardService(loader, cfg, 0, logging.NewNopLogger(), metrics.NewNopCollector())

	router := mux.NewRouter()
	NewDashboardHandler(dashboard, logging.NewNopLogger(), metrics.NewNopCollector()).RegisterRoutes(router)
	return router, dashboard
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

type tableBody struct {
	Title   string          `json:"title"`
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

func TestDashboardHandler_Tables(t *testing.T) {
	router, _ := newTestRouter(stubFixture())

	tests := []struct {
		name        string
		target      string
		wantStatus  int
		checkValues func(*testing.T, tableBody)
	}{
		{
			name:       "headline",
			target:     "/api/report/headline",
			wantStatus: http.StatusOK,
			checkValues: func(t *testing.T, body tableBody) {
				require.Len(t, body.Rows, 1)
				assert.Equal(t, "2024-03-01", body.Rows[0][0])
			},
		},
		{
			name:       "top gas wells",
			target:     "/api/report/top-wells?fluid=gas",
			wantStatus: http.StatusOK,
			checkValues: func(t *testing.T, body tableBody) {
				require.NotEmpty(t, body.Rows)
				assert.Equal(t, "G1", body.Rows[0][0])
			},
		},
		{name: "operator series", target: "/api/report/operators", wantStatus: http.StatusOK},
		{name: "vintage series", target: "/api/report/vintages", wantStatus: http.StatusOK},
		{name: "well counts", target: "/api/report/well-counts", wantStatus: http.StatusOK},
		{name: "oil watchlist", target: "/api/watchlist?fluid=oil", wantStatus: http.StatusOK},
		{
			name:       "activity in latest year",
			target:     "/api/rankings/activity?fluid=gas",
			wantStatus: http.StatusOK,
			checkValues: func(t *testing.T, body tableBody) {
				require.Len(t, body.Rows, 1)
				assert.Equal(t, "TECPETROL S.A.", body.Rows[0][0])
				assert.Equal(t, 2.0, body.Rows[0][1])
			},
		},
		{name: "activity in previous year", target: "/api/rankings/activity?year=2023", wantStatus: http.StatusOK},
		{name: "lateral length by operator", target: "/api/rankings/lateral-length?by=operator", wantStatus: http.StatusOK},
		{name: "peak rate", target: "/api/rankings/peak-rate?fluid=gas&by=well", wantStatus: http.StatusOK},
		{name: "proppant", target: "/api/rankings/proppant", wantStatus: http.StatusOK},
		{name: "unknown fluid", target: "/api/report/top-wells?fluid=water", wantStatus: http.StatusBadRequest},
		{name: "unknown grouping", target: "/api/rankings/proppant?by=block", wantStatus: http.StatusBadRequest},
		{name: "non-numeric year", target: "/api/rankings/activity?year=last", wantStatus: http.StatusBadRequest},
		{name: "year outside range", target: "/api/rankings/activity?year=1800", wantStatus: http.StatusBadRequest},
		{name: "year without activity", target: "/api/rankings/activity?year=2019", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantStatus != http.StatusOK {
				var errBody ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
				assert.Equal(t, tt.wantStatus, errBody.Code)
				assert.NotEmpty(t, errBody.Message)
				return
			}

			var body tableBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Title)
			assert.NotEmpty(t, body.Columns)
			if tt.checkValues != nil {
				tt.checkValues(t, body)
			}
		})
	}
}

func TestDashboardHandler_ActivityYears(t *testing.T) {
	router, _ := newTestRouter(stubFixture())

	rec := do(t, router, http.MethodGet, "/api/rankings/years")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Years []int `json:"years"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []int{2024, 2023}, body.Years)
}

func TestDashboardHandler_ListWells(t *testing.T) {
	router, _ := newTestRouter(stubFixture())

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantTotal  int
		wantPages  int
		wantFirst  string
	}{
		{name: "first page", target: "/api/wells?limit=3", wantStatus: http.StatusOK, wantTotal: 4, wantPages: 2, wantFirst: "G1"},
		{name: "second page", target: "/api/wells?limit=3&page=2", wantStatus: http.StatusOK, wantTotal: 4, wantPages: 2, wantFirst: "O2"},
		{name: "operator filter", target: "/api/wells?operator=ypf%20s.a.", wantStatus: http.StatusOK, wantTotal: 1, wantPages: 1, wantFirst: "O1"},
		{name: "year filter", target: "/api/wells?year=2024", wantStatus: http.StatusOK, wantTotal: 2, wantPages: 1, wantFirst: "G1"},
		{name: "limit above max is clamped", target: "/api/wells?limit=5000", wantStatus: http.StatusOK, wantTotal: 4, wantPages: 1, wantFirst: "G1"},
		{name: "page zero", target: "/api/wells?page=0", wantStatus: http.StatusBadRequest},
		{name: "bad limit", target: "/api/wells?limit=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				Data       []models.WellSummary `json:"data"`
				Total      int                  `json:"total"`
				TotalPages int                  `json:"total_pages"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantTotal, body.Total)
			assert.Equal(t, tt.wantPages, body.TotalPages)
			require.NotEmpty(t, body.Data)
			assert.Equal(t, tt.wantFirst, body.Data[0].Sigla)
		})
	}
}

func TestDashboardHandler_GetWell(t *testing.T) {
	router, _ := newTestRouter(stubFixture())

	rec := do(t, router, http.MethodGet, "/api/wells/O1")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Summary     models.WellSummary        `json:"summary"`
		Completions []models.CompletionRecord `json:"completions"`
		History     tableBody                 `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "YPF S.A.", detail.Summary.Operator)
	assert.Len(t, detail.Completions, 1)
	assert.Len(t, detail.History.Rows, 3)

	rec = do(t, router, http.MethodGet, "/api/wells/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandler_SourceFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name: "upstream 503 is transient",
			err: &repository.LoadError{Table: repository.TableProduction, Source: "http",
				Err: &repository.HTTPStatusError{URL: "http://x", StatusCode: http.StatusServiceUnavailable}},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "upstream 404 is permanent",
			err: &repository.LoadError{Table: repository.TableProduction, Source: "http",
				Err: &repository.HTTPStatusError{URL: "http://x", StatusCode: http.StatusNotFound}},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "malformed source row",
			err:        &models.ValidationError{Field: "mes", Value: "13", Message: "month must be between 1 and 12"},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := stubFixture()
			repo.prodErr = tt.err
			router, _ := newTestRouter(repo)

			rec := do(t, router, http.MethodGet, "/api/report/headline")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestDashboardHandler_HealthAndRefresh(t *testing.T) {
	repo := stubFixture()
	router, dashboard := newTestRouter(repo)

	rec := do(t, router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.NotContains(t, health, "session", "health must not trigger a build")
	assert.Nil(t, dashboard.Current())

	rec = do(t, router, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, dashboard.Current())

	rec = do(t, router, http.MethodGet, "/health")
	health = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	session, ok := health["session"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, dashboard.Current().ID, session["id"])
	assert.Equal(t, 4.0, session["wells"])

	repo.healthErr = errors.New("connection refused")
	rec = do(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDocs(t *testing.T) {
	router := mux.NewRouter()
	RegisterDocs(router)

	rec := do(t, router, http.MethodGet, OpenAPIPath)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/rankings/peak-rate")
	assert.Contains(t, paths, "/api/wells/{sigla}")

	peak := paths["/api/rankings/peak-rate"].(map[string]interface{})["get"].(map[string]interface{})
	assert.Equal(t, []interface{}{tagRankings}, peak["tags"])
	assert.Len(t, doc["tags"], 4)

	rec = do(t, router, http.MethodGet, DocsPath)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "openapi.json")
	assert.Contains(t, rec.Body.String(), "<title>Shale Dashboard API</title>")
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	rec := do(t, h, http.MethodGet, "/")
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	const incoming = "8a1f0c4e-5b7d-4e39-9a57-2f5c2d0f6b11"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", seen)
}

func TestRateLimiter(t *testing.T) {
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	limiter := NewRateLimiter(0.001, 2, logging.NewNopLogger(), collector)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodGet, "/").Code)

	rec := do(t, h, http.MethodGet, "/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.APIRateLimited))

	open := NewRateLimiter(0, 0, logging.NewNopLogger(), collector).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNoContent, do(t, open, http.MethodGet, "/").Code)
	}
}
