// Package gateway provides the HTTP surface of the switchyard query router.
// The gateway accepts SQL queries, resolves the target engine through the
// router, and serves health, readiness, table listing, and ingestion
// endpoints around it.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/observability"
	"github.com/switchyard-labs/switchyard/internal/router"
	"github.com/switchyard-labs/switchyard/pkg/api"
	"github.com/switchyard-labs/switchyard/pkg/models"
)

// TableLister reports the logical tables present in the lake bucket.
type TableLister interface {
	ListTables(ctx context.Context) ([]string, error)
}

// Ingester loads a CSV file into the lake as a timestamped parquet object
// and returns the object path it wrote.
type Ingester interface {
	Ingest(ctx context.Context, table, csvPath string) (string, error)
}

// Config holds gateway configuration.
type Config struct {
	Version string

	// ReadinessTimeout bounds the engine health probes behind /readyz.
	// Default: 5s.
	ReadinessTimeout time.Duration
}

// Gateway is the HTTP handler for the query router. Construction fails
// when the registry is missing any engine variant, so a serving gateway
// can always resolve every label the classifier may produce.
type Gateway struct {
	config   Config
	registry *adapters.Registry
	router   *router.Router
	tables   TableLister
	ingester Ingester
	logger   *log.Logger
	handler  http.Handler
}

// NewGateway creates a gateway over a validated registry and router.
// tables and ingester are optional; their endpoints report not-configured
// when absent.
func NewGateway(registry *adapters.Registry, rtr *router.Router, tables TableLister, ingester Ingester, cfg Config, logger *log.Logger) (*Gateway, error) {
	if registry == nil {
		return nil, fmt.Errorf("gateway: registry is required")
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	if rtr == nil {
		return nil, fmt.Errorf("gateway: router is required")
	}
	if cfg.ReadinessTimeout <= 0 {
		cfg.ReadinessTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	g := &Gateway{
		config:   cfg,
		registry: registry,
		router:   rtr,
		tables:   tables,
		ingester: ingester,
		logger:   logger,
	}
	g.handler = chain(g.routes(),
		observability.RequestIDMiddleware,
		observability.MetricsMiddleware,
		observability.LoggingMiddleware(logger),
	)
	return g, nil
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.handler.ServeHTTP(w, r)
}

func (g *Gateway) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+api.EndpointQuery, g.handleQuery)
	mux.HandleFunc("GET "+api.EndpointHealth, g.handleHealth)
	mux.HandleFunc("GET "+api.EndpointReady, g.handleReady)
	mux.HandleFunc("GET "+api.EndpointTables, g.handleTables)
	mux.HandleFunc("POST "+api.EndpointIngest, g.handleIngest)
	mux.Handle("GET "+api.EndpointMetrics, promhttp.Handler())
	return mux
}

// handleQuery is the always-200 query surface: backend failures travel in
// the response body, not the status code. Only an undecodable body is a
// transport-level 400.
func (g *Gateway) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  http.StatusBadRequest,
		})
		return
	}

	resp := g.router.Route(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth reports liveness and the registered engine names, in
// registration order. It makes no backend calls.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "alive",
		Engines: g.registry.Names(),
	})
}

// handleReady probes every engine and reports 503 unless all respond.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), g.config.ReadinessTimeout)
	defer cancel()

	results := g.registry.CheckAllHealth(ctx)
	resp := models.ReadinessResponse{
		Ready:   true,
		Engines: make(map[string]string, len(results)),
	}
	for name, err := range results {
		if err != nil {
			resp.Ready = false
			resp.Engines[name] = err.Error()
			continue
		}
		resp.Engines[name] = "ok"
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (g *Gateway) handleTables(w http.ResponseWriter, r *http.Request) {
	if g.tables == nil {
		writeJSON(w, http.StatusNotImplemented, models.ErrorResponse{
			Error: "table listing is not configured",
			Code:  http.StatusNotImplemented,
		})
		return
	}

	tables, err := g.tables.ListTables(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error: err.Error(),
			Code:  http.StatusInternalServerError,
		})
		return
	}
	writeJSON(w, http.StatusOK, models.TablesResponse{Tables: tables})
}

func (g *Gateway) handleIngest(w http.ResponseWriter, r *http.Request) {
	if g.ingester == nil {
		writeJSON(w, http.StatusNotImplemented, models.ErrorResponse{
			Error: "ingestion is not configured",
			Code:  http.StatusNotImplemented,
		})
		return
	}

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  http.StatusBadRequest,
		})
		return
	}

	path, err := g.ingester.Ingest(r.Context(), req.Table, req.CSVPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.IngestResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models.IngestResponse{Status: "ok", Path: path})
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set(api.HeaderContentType, api.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
