// Package router provides engine selection and query routing.
// Routing is deterministic and rule-based - no cost estimation or ML.
package router

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/classifier"
	"github.com/switchyard-labs/switchyard/internal/errors"
	"github.com/switchyard-labs/switchyard/internal/observability"
	"github.com/switchyard-labs/switchyard/pkg/models"
)

// Config holds router configuration.
type Config struct {
	// QueryTimeout bounds a single engine call. Default: 30s.
	QueryTimeout time.Duration

	// Retry governs the bounded re-attempt after a transient failure.
	Retry adapters.RetryConfig
}

// DefaultConfig returns the default router configuration.
func DefaultConfig() Config {
	return Config{
		QueryTimeout: 30 * time.Second,
		Retry:        adapters.DefaultRetryConfig(),
	}
}

// Router is the single entry point for query execution. It resolves the
// target engine (forced override or classifier), runs the adapter, and
// normalizes every outcome into one response shape.
type Router struct {
	classifier *classifier.Classifier
	registry   *adapters.Registry
	config     Config
	audit      observability.QueryLogger
	logger     *log.Logger
}

// NewRouter creates a router over a populated registry.
func NewRouter(registry *adapters.Registry, cfg Config, audit observability.QueryLogger, logger *log.Logger) (*Router, error) {
	if registry == nil {
		return nil, fmt.Errorf("router: registry is required")
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	if audit == nil {
		audit = observability.NewNoopLogger()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Router{
		classifier: classifier.New(),
		registry:   registry,
		config:     cfg,
		audit:      audit,
		logger:     logger,
	}, nil
}

// Route executes the request and returns a normalized response. It never
// returns an error and never panics outward: unknown overrides, backend
// failures, and adapter panics all surface in the response's error field,
// with engine and duration populated regardless of outcome.
func (r *Router) Route(ctx context.Context, req models.QueryRequest) models.QueryResponse {
	queryID := observability.RequestIDFromContext(ctx)
	if queryID == "" {
		queryID = uuid.NewString()
	}

	if req.ForceEngine != "" {
		name := strings.ToLower(req.ForceEngine)
		adapter, ok := r.registry.Get(name)
		if !ok {
			// No timing is attempted for an override that names nothing.
			resp := models.QueryResponse{
				Error:  errors.NewUnknownEngine(name).Error(),
				Engine: name,
			}
			r.observe(ctx, queryID, req.SQL, "", true, resp, 0)
			return resp
		}
		r.logger.Printf("Forced routing query %s to %s", queryID, adapter.Name())
		return r.execute(ctx, queryID, req.SQL, "", true, adapter)
	}

	label := r.classifier.Classify(req.SQL)
	adapter, ok := r.registry.ForLabel(label)
	if !ok {
		// Cannot happen with a validated registry; contained anyway.
		name := label.EngineName()
		resp := models.QueryResponse{
			Error:  errors.NewUnknownEngine(name).Error(),
			Engine: name,
		}
		r.observe(ctx, queryID, req.SQL, label, false, resp, 0)
		return resp
	}
	r.logger.Printf("Routing query %s to %s (%s)", queryID, adapter.Name(), label)
	return r.execute(ctx, queryID, req.SQL, label, false, adapter)
}

// execute times a single adapter invocation and maps its outcome onto the
// response shape. The timer runs whether the call succeeds or fails.
func (r *Router) execute(ctx context.Context, queryID, sql string, label classifier.Label, forced bool, adapter adapters.EngineAdapter) models.QueryResponse {
	start := time.Now()
	result, err := r.attempt(ctx, adapter, sql)
	duration := time.Since(start)

	resp := models.QueryResponse{
		Engine:   adapter.Name(),
		Duration: duration.Seconds(),
	}
	switch {
	case err != nil:
		resp.Error = err.Error()
	case result.Status != "":
		resp.Status = result.Status
	default:
		resp.Data = result.Rows
		if resp.Data == nil {
			resp.Data = []map[string]interface{}{}
		}
		resp.Columns = result.Columns
	}

	r.observe(ctx, queryID, sql, label, forced, resp, duration)
	return resp
}

// attempt runs the adapter under the per-call timeout and the bounded
// retry policy. A panic inside the adapter is converted to an error so
// the caller's never-raise contract holds.
func (r *Router) attempt(ctx context.Context, adapter adapters.EngineAdapter, sql string) (result *adapters.QueryResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s adapter panicked: %v", adapter.Name(), rec)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, r.config.QueryTimeout)
	defer cancel()

	retryResult := adapters.ExecuteWithRetry(callCtx, r.config.Retry, func() error {
		res, execErr := adapter.Execute(callCtx, sql)
		if execErr != nil {
			return execErr
		}
		result = res
		return nil
	})
	if !retryResult.Success {
		if retryResult.Attempts > 1 {
			r.logger.Printf("Query on %s %s", adapter.Name(), retryResult.String())
		}
		// The response carries the adapter's own message, not the retry
		// bookkeeping.
		return nil, retryResult.LastError
	}
	if retryResult.Attempts > 1 {
		r.logger.Printf("Query on %s %s", adapter.Name(), retryResult.String())
	}
	return result, nil
}

// observe records the request in the audit log and the metrics, keyed by
// the engine named in the response.
func (r *Router) observe(ctx context.Context, queryID, sql string, label classifier.Label, forced bool, resp models.QueryResponse, duration time.Duration) {
	outcome := "success"
	if resp.Error != "" {
		outcome = "error"
	}
	observability.ObserveQuery(resp.Engine, outcome, duration)

	entry := observability.QueryLogEntry{
		QueryID:  queryID,
		SQL:      sql,
		Label:    label.String(),
		Forced:   forced,
		Engine:   resp.Engine,
		Duration: duration,
		Outcome:  outcome,
		Error:    resp.Error,
	}
	if err := r.audit.LogQuery(ctx, entry); err != nil {
		r.logger.Printf("Audit log write failed: %v", err)
	}
}
