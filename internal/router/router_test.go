package router

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/classifier"
	"github.com/switchyard-labs/switchyard/internal/observability"
	"github.com/switchyard-labs/switchyard/pkg/models"
)

type fakeAdapter struct {
	name  string
	label classifier.Label
	calls int
	fn    func(ctx context.Context, sql string) (*adapters.QueryResult, error)
}

func (f *fakeAdapter) Name() string            { return f.name }
func (f *fakeAdapter) Label() classifier.Label { return f.label }

func (f *fakeAdapter) Execute(ctx context.Context, sql string) (*adapters.QueryResult, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(ctx, sql)
	}
	return &adapters.QueryResult{
		Columns: []string{"id"},
		Rows:    []map[string]interface{}{{"id": int64(1)}},
	}, nil
}

func (f *fakeAdapter) CheckHealth(ctx context.Context) error { return nil }
func (f *fakeAdapter) Close() error                          { return nil }

type captureLogger struct {
	entries []observability.QueryLogEntry
}

func (c *captureLogger) LogQuery(ctx context.Context, entry observability.QueryLogEntry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureLogger) Summary(ctx context.Context) (*observability.Summary, error) {
	return &observability.Summary{}, nil
}

func fastConfig() Config {
	return Config{
		QueryTimeout: time.Second,
		Retry: adapters.RetryConfig{
			MaxAttempts:       2,
			InitialDelay:      time.Millisecond,
			MaxDelay:          time.Millisecond,
			BackoffMultiplier: 1.0,
		},
	}
}

func newTestRouter(t *testing.T) (*Router, map[string]*fakeAdapter, *captureLogger) {
	t.Helper()

	fakes := map[string]*fakeAdapter{
		"postgres":   {name: "postgres", label: classifier.LabelTransactional},
		"clickhouse": {name: "clickhouse", label: classifier.LabelColumnar},
		"trino":      {name: "trino", label: classifier.LabelFederation},
		"duckdb":     {name: "duckdb", label: classifier.LabelAdHoc},
	}

	registry := adapters.NewRegistry()
	for _, name := range []string{"postgres", "clickhouse", "trino", "duckdb"} {
		if err := registry.Register(fakes[name]); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	audit := &captureLogger{}
	r, err := NewRouter(registry, fastConfig(), audit, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	return r, fakes, audit
}

func TestNewRouter_RequiresRegistry(t *testing.T) {
	if _, err := NewRouter(nil, DefaultConfig(), nil, nil); err == nil {
		t.Fatal("expected error for nil registry")
	}
}

func TestRoute_ClassifiedDispatch(t *testing.T) {
	r, fakes, _ := newTestRouter(t)

	tests := []struct {
		sql        string
		wantEngine string
	}{
		{"SELECT * FROM users WHERE id = 1", "postgres"},
		{"INSERT INTO users VALUES (1, 'Alice', 'Admin')", "postgres"},
		{"SELECT COUNT(*) FROM users", "clickhouse"},
		{"SELECT a.name, b.role FROM users a JOIN users b ON a.id = b.id", "trino"},
		{"SELECT * FROM users", "duckdb"},
		{"SELEC * FRO", "duckdb"},
	}
	for _, tt := range tests {
		resp := r.Route(context.Background(), models.QueryRequest{SQL: tt.sql})
		if resp.Engine != tt.wantEngine {
			t.Errorf("Route(%q) engine = %q, want %q", tt.sql, resp.Engine, tt.wantEngine)
		}
		if resp.Error != "" {
			t.Errorf("Route(%q) unexpected error: %s", tt.sql, resp.Error)
		}
	}

	if fakes["postgres"].calls != 2 {
		t.Errorf("postgres calls = %d, want 2", fakes["postgres"].calls)
	}
	if fakes["duckdb"].calls != 2 {
		t.Errorf("duckdb calls = %d, want 2", fakes["duckdb"].calls)
	}
}

func TestRoute_ForcedOverrideWins(t *testing.T) {
	r, fakes, audit := newTestRouter(t)

	// Classifier would pick postgres; the override must win and the name
	// must be lowercased on the way through.
	resp := r.Route(context.Background(), models.QueryRequest{
		SQL:         "SELECT * FROM users WHERE id = 1",
		ForceEngine: "DuckDB",
	})

	if resp.Engine != "duckdb" {
		t.Errorf("engine = %q, want duckdb", resp.Engine)
	}
	if fakes["duckdb"].calls != 1 {
		t.Errorf("duckdb calls = %d, want 1", fakes["duckdb"].calls)
	}
	if fakes["postgres"].calls != 0 {
		t.Errorf("postgres calls = %d, want 0", fakes["postgres"].calls)
	}
	if len(audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audit.entries))
	}
	entry := audit.entries[0]
	if !entry.Forced {
		t.Error("audit entry not marked forced")
	}
	if entry.Label != "" {
		t.Errorf("audit label = %q, want empty for forced request", entry.Label)
	}
}

func TestRoute_UnknownEngineOverride(t *testing.T) {
	r, fakes, audit := newTestRouter(t)

	resp := r.Route(context.Background(), models.QueryRequest{
		SQL:         "SELECT 1",
		ForceEngine: "Spark",
	})

	if resp.Error != "Unknown engine: spark" {
		t.Errorf("error = %q, want %q", resp.Error, "Unknown engine: spark")
	}
	if resp.Engine != "spark" {
		t.Errorf("engine = %q, want spark", resp.Engine)
	}
	if resp.Duration != 0 {
		t.Errorf("duration = %v, want 0", resp.Duration)
	}
	if resp.Data != nil || resp.Status != "" {
		t.Error("unknown engine response must carry only the error")
	}
	for name, fake := range fakes {
		if fake.calls != 0 {
			t.Errorf("%s executed %d times, want 0", name, fake.calls)
		}
	}
	if len(audit.entries) != 1 || audit.entries[0].Outcome != "error" {
		t.Fatalf("expected one error audit entry, got %+v", audit.entries)
	}
}

func TestRoute_BackendErrorIsContained(t *testing.T) {
	r, fakes, audit := newTestRouter(t)
	fakes["duckdb"].fn = func(ctx context.Context, sql string) (*adapters.QueryResult, error) {
		return nil, errors.New("duckdb adapter: query failed: table missing")
	}

	resp := r.Route(context.Background(), models.QueryRequest{SQL: "SELECT * FROM users"})

	if resp.Error != "duckdb adapter: query failed: table missing" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Engine != "duckdb" {
		t.Errorf("engine = %q, want duckdb", resp.Engine)
	}
	if resp.Duration < 0 {
		t.Errorf("duration = %v, want >= 0", resp.Duration)
	}
	if resp.Data != nil || resp.Status != "" {
		t.Error("error response must not carry data or status")
	}
	if audit.entries[0].Outcome != "error" {
		t.Errorf("audit outcome = %q, want error", audit.entries[0].Outcome)
	}
}

func TestRoute_StatusPassthrough(t *testing.T) {
	r, fakes, _ := newTestRouter(t)
	fakes["postgres"].fn = func(ctx context.Context, sql string) (*adapters.QueryResult, error) {
		return &adapters.QueryResult{Status: "ok"}, nil
	}

	resp := r.Route(context.Background(), models.QueryRequest{
		SQL: "INSERT INTO users VALUES (3, 'Carol', 'User')",
	})

	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Data != nil || resp.Error != "" {
		t.Error("status response must not carry data or error")
	}
}

func TestRoute_EmptyRowsetKeepsDataPresent(t *testing.T) {
	r, fakes, _ := newTestRouter(t)
	fakes["duckdb"].fn = func(ctx context.Context, sql string) (*adapters.QueryResult, error) {
		return &adapters.QueryResult{Columns: []string{"id", "name"}}, nil
	}

	resp := r.Route(context.Background(), models.QueryRequest{SQL: "SELECT * FROM users"})

	if resp.Data == nil {
		t.Fatal("data must be present (empty) for a zero-row result set")
	}
	if len(resp.Data) != 0 {
		t.Errorf("data length = %d, want 0", len(resp.Data))
	}
	if len(resp.Columns) != 2 {
		t.Errorf("columns = %v, want two names", resp.Columns)
	}
}

func TestRoute_PanickingAdapterIsContained(t *testing.T) {
	r, fakes, _ := newTestRouter(t)
	fakes["duckdb"].fn = func(ctx context.Context, sql string) (*adapters.QueryResult, error) {
		panic("driver blew up")
	}

	resp := r.Route(context.Background(), models.QueryRequest{SQL: "SELECT * FROM users"})

	if !strings.Contains(resp.Error, "duckdb adapter panicked") {
		t.Errorf("error = %q, want panic containment message", resp.Error)
	}
	if resp.Engine != "duckdb" {
		t.Errorf("engine = %q, want duckdb", resp.Engine)
	}
}

func TestRoute_RetriesTransientFailure(t *testing.T) {
	r, fakes, _ := newTestRouter(t)
	fakes["duckdb"].fn = func(ctx context.Context, sql string) (*adapters.QueryResult, error) {
		if fakes["duckdb"].calls == 1 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return &adapters.QueryResult{Status: "ok"}, nil
	}

	resp := r.Route(context.Background(), models.QueryRequest{SQL: "SELECT * FROM users"})

	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if fakes["duckdb"].calls != 2 {
		t.Errorf("calls = %d, want 2", fakes["duckdb"].calls)
	}
}

func TestRoute_DoesNotRetrySemanticError(t *testing.T) {
	r, fakes, _ := newTestRouter(t)
	fakes["duckdb"].fn = func(ctx context.Context, sql string) (*adapters.QueryResult, error) {
		return nil, errors.New(`duckdb adapter: query failed: syntax error at "FRO"`)
	}

	r.Route(context.Background(), models.QueryRequest{SQL: "SELEC * FRO"})

	if fakes["duckdb"].calls != 1 {
		t.Errorf("calls = %d, want 1", fakes["duckdb"].calls)
	}
}

func TestRoute_TimeoutBoundsCall(t *testing.T) {
	registry := adapters.NewRegistry()
	fakes := map[string]*fakeAdapter{
		"postgres":   {name: "postgres", label: classifier.LabelTransactional},
		"clickhouse": {name: "clickhouse", label: classifier.LabelColumnar},
		"trino":      {name: "trino", label: classifier.LabelFederation},
		"duckdb":     {name: "duckdb", label: classifier.LabelAdHoc},
	}
	for _, name := range []string{"postgres", "clickhouse", "trino", "duckdb"} {
		if err := registry.Register(fakes[name]); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}
	fakes["duckdb"].fn = func(ctx context.Context, sql string) (*adapters.QueryResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	cfg := fastConfig()
	cfg.QueryTimeout = 20 * time.Millisecond
	r, err := NewRouter(registry, cfg, nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}

	resp := r.Route(context.Background(), models.QueryRequest{SQL: "SELECT * FROM users"})

	if !strings.Contains(resp.Error, "context deadline exceeded") {
		t.Errorf("error = %q, want deadline exceeded", resp.Error)
	}
	// Deadline expiry must not trigger the retry.
	if fakes["duckdb"].calls != 1 {
		t.Errorf("calls = %d, want 1", fakes["duckdb"].calls)
	}
}

func TestRoute_AuditsClassifiedRequests(t *testing.T) {
	r, _, audit := newTestRouter(t)

	ctx := observability.ContextWithRequestID(context.Background(), "req-42")
	r.Route(ctx, models.QueryRequest{SQL: "SELECT COUNT(*) FROM users"})

	if len(audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.QueryID != "req-42" {
		t.Errorf("query id = %q, want req-42", entry.QueryID)
	}
	if entry.Label != "columnar" {
		t.Errorf("label = %q, want columnar", entry.Label)
	}
	if entry.Forced {
		t.Error("entry must not be marked forced")
	}
	if entry.Engine != "clickhouse" {
		t.Errorf("engine = %q, want clickhouse", entry.Engine)
	}
	if entry.Outcome != "success" {
		t.Errorf("outcome = %q, want success", entry.Outcome)
	}
}
