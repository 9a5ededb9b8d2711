package handlers

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

// Documentation routes.
const (
	DocsPath    = "/api/docs"
	OpenAPIPath = "/api/docs/openapi.json"
)

// Operation groups, in the order the docs page lists them.
const (
	tagReport   = "Report"
	tagRankings = "Rankings"
	tagWells    = "Wells"
	tagService  = "Service"
)

var docsTags = []map[string]string{
	{"name": tagReport, "description": "Basin headline, top wells, rate series and watchlist"},
	{"name": tagRankings, "description": "Per start year rankings of activity and completion design"},
	{"name": tagWells, "description": "Per-well summaries and detail"},
	{"name": tagService, "description": "Health, session refresh and metrics"},
}

// RegisterDocs registers the docs page and the OpenAPI document.
func RegisterDocs(router *mux.Router) {
	router.HandleFunc(DocsPath, DocsPage).Methods("GET")
	router.HandleFunc(OpenAPIPath, OpenAPISpec).Methods("GET")
}

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
    <style>body { margin: 0; }</style>
</head>
<body>
    <div id="docs"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: "#docs",
                layout: "BaseLayout",
                docExpansion: "list",
                defaultModelsExpandDepth: -1,
                tryItOutEnabled: true,
            });
        };
    </script>
</body>
</html>`))

// DocsPage serves an interactive page over the OpenAPI document.
func DocsPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = docsPage.Execute(w, struct {
		Title   string
		SpecURL string
	}{
		Title:   "Shale Dashboard API",
		SpecURL: OpenAPIPath,
	})
}

var tableSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":   map[string]string{"type": "string"},
		"columns": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
		"rows": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "array", "items": map[string]interface{}{"nullable": true}},
		},
	},
}

var errorSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"error":   map[string]string{"type": "string"},
		"message": map[string]string{"type": "string"},
		"code":    map[string]string{"type": "integer"},
	},
}

func queryParam(name, description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

var (
	fluidParam = queryParam("fluid", "Primary fluid (default: oil)", map[string]interface{}{"type": "string", "enum": []string{"oil", "gas"}, "default": "oil"})
	byParam    = queryParam("by", "Rank wells or operators (default: well)", map[string]interface{}{"type": "string", "enum": []string{"well", "operator"}, "default": "well"})
	yearParam  = queryParam("year", "Activity year, one of the two latest (default: latest)", map[string]interface{}{"type": "integer"})
)

func jsonContent(schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"application/json": map[string]interface{}{"schema": schema},
	}
}

// tableOperation documents a GET endpoint returning one table.
func tableOperation(tag, summary, description string, params ...map[string]interface{}) map[string]interface{} {
	if params == nil {
		params = []map[string]interface{}{}
	}
	return map[string]interface{}{
		"get": map[string]interface{}{
			"tags":        []string{tag},
			"summary":     summary,
			"description": description,
			"parameters":  params,
			"responses": map[string]interface{}{
				"200": map[string]interface{}{"description": "Table", "content": jsonContent(tableSchema)},
				"400": map[string]interface{}{"description": "Invalid query parameter", "content": jsonContent(errorSchema)},
				"502": map[string]interface{}{"description": "Source data could not be processed", "content": jsonContent(errorSchema)},
				"503": map[string]interface{}{"description": "Source temporarily unavailable", "content": jsonContent(errorSchema)},
			},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Shale Dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Shale Dashboard API",
			"description": "Vaca Muerta unconventional well production and completion dashboard built on the Secretaría de Energía open data",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Shale Dashboard Team",
			},
		},
		"tags": docsTags,
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/report/headline":         tableOperation(tagReport, "Headline", "Basin gas and oil rate at the latest consolidated month"),
			"/api/report/top-wells":        tableOperation(tagReport, "Top wells", "Top wells by rate at the latest month", fluidParam),
			"/api/report/operators":        tableOperation(tagReport, "Rate by operator", "Monthly basin rate for the top operators, the rest grouped as Otros"),
			"/api/report/vintages":         tableOperation(tagReport, "Rate by vintage", "Monthly basin rate grouped by start year"),
			"/api/report/well-counts":      tableOperation(tagReport, "New wells per year", "Wells put on production per start year and fluid"),
			"/api/watchlist":               tableOperation(tagReport, "Watchlist", "Monthly history of the best well per start year", fluidParam),
			"/api/rankings/activity":       tableOperation(tagRankings, "Activity", "Wells per operator in one activity year", yearParam, fluidParam),
			"/api/rankings/lateral-length": tableOperation(tagRankings, "Lateral length", "Horizontal branch length ranking per start year", byParam),
			"/api/rankings/peak-rate":      tableOperation(tagRankings, "Peak rate", "Peak monthly rate ranking per start year", fluidParam, byParam),
			"/api/rankings/proppant":       tableOperation(tagRankings, "Proppant", "Pumped proppant ranking per start year", byParam),
			"/api/rankings/years": map[string]interface{}{
				"get": map[string]interface{}{
					"tags":    []string{tagRankings},
					"summary": "Activity years",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "The latest activity year and the one before",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"years": map[string]interface{}{"type": "array", "items": map[string]string{"type": "integer"}},
								},
							}),
						},
					},
				},
			},
			"/api/wells": map[string]interface{}{
				"get": map[string]interface{}{
					"tags":        []string{tagWells},
					"summary":     "List well summaries",
					"description": "Per-well summaries ordered by sigla, with filtering and pagination",
					"parameters": []map[string]interface{}{
						queryParam("operator", "Filter by canonical operator (case-insensitive)", map[string]interface{}{"type": "string"}),
						queryParam("year", "Filter by start year", map[string]interface{}{"type": "integer"}),
						queryParam("page", "Page number (default: 1)", map[string]interface{}{"type": "integer", "default": 1}),
						queryParam("limit", "Records per page (default: 100, max: 1000)", map[string]interface{}{"type": "integer", "default": defaultPageLimit}),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"data":        map[string]interface{}{"type": "array", "items": map[string]string{"type": "object"}},
									"total":       map[string]string{"type": "integer"},
									"page":        map[string]string{"type": "integer"},
									"limit":       map[string]string{"type": "integer"},
									"total_pages": map[string]string{"type": "integer"},
								},
							}),
						},
						"400": map[string]interface{}{"description": "Invalid query parameter", "content": jsonContent(errorSchema)},
					},
				},
			},
			"/api/wells/{sigla}": map[string]interface{}{
				"get": map[string]interface{}{
					"tags":        []string{tagWells},
					"summary":     "Well detail",
					"description": "Summary, completions and monthly history of one well",
					"parameters": []map[string]interface{}{
						{
							"name":     "sigla",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Well detail", "content": jsonContent(map[string]string{"type": "object"})},
						"404": map[string]interface{}{"description": "Unknown well", "content": jsonContent(errorSchema)},
					},
				},
			},
			"/api/refresh": map[string]interface{}{
				"post": map[string]interface{}{
					"tags":        []string{tagService},
					"summary":     "Rebuild session",
					"description": "Reload both source tables and rebuild the pipeline",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "New session", "content": jsonContent(map[string]string{"type": "object"})},
						"503": map[string]interface{}{"description": "Source temporarily unavailable", "content": jsonContent(errorSchema)},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"tags":        []string{tagService},
					"summary":     "Health check",
					"description": "Check source reachability and report the current session",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"status":  map[string]string{"type": "string"},
									"session": map[string]string{"type": "object"},
								},
							}),
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"tags":        []string{tagService},
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	_ = writeJSON(w, spec, http.StatusOK)
}
