// Package greenflag contains tests that verify the system correctly
// performs supported behavior: statements land on the engine their shape
// selects, overrides are honored, and every answer keeps the response
// contract.
package greenflag

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/classifier"
	"github.com/switchyard-labs/switchyard/internal/gateway"
	"github.com/switchyard-labs/switchyard/internal/observability"
	"github.com/switchyard-labs/switchyard/internal/router"
)

// fakeAdapter serves one routing label and records how often it ran.
type fakeAdapter struct {
	name  string
	label classifier.Label
	calls atomic.Int64
	fn    func(ctx context.Context, sql string) (*adapters.QueryResult, error)
}

func (f *fakeAdapter) Name() string            { return f.name }
func (f *fakeAdapter) Label() classifier.Label { return f.label }
func (f *fakeAdapter) Close() error            { return nil }

func (f *fakeAdapter) CheckHealth(ctx context.Context) error { return nil }

func (f *fakeAdapter) Execute(ctx context.Context, sql string) (*adapters.QueryResult, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(ctx, sql)
	}
	return &adapters.QueryResult{
		Columns: []string{"engine"},
		Rows:    []map[string]interface{}{{"engine": f.name}},
	}, nil
}

// engineSet is the full four-variant fake registry.
type engineSet struct {
	postgres   *fakeAdapter
	clickhouse *fakeAdapter
	trino      *fakeAdapter
	duckdb     *fakeAdapter
}

func (s *engineSet) byName(name string) *fakeAdapter {
	switch name {
	case "postgres":
		return s.postgres
	case "clickhouse":
		return s.clickhouse
	case "trino":
		return s.trino
	case "duckdb":
		return s.duckdb
	}
	return nil
}

// newTestGateway wires fake adapters behind a real classifier, router, and
// gateway, so requests travel the full HTTP path.
func newTestGateway(t *testing.T) (*gateway.Gateway, *engineSet) {
	t.Helper()

	set := &engineSet{
		postgres:   &fakeAdapter{name: "postgres", label: classifier.LabelTransactional},
		clickhouse: &fakeAdapter{name: "clickhouse", label: classifier.LabelColumnar},
		trino:      &fakeAdapter{name: "trino", label: classifier.LabelFederation},
		duckdb:     &fakeAdapter{name: "duckdb", label: classifier.LabelAdHoc},
	}

	registry := adapters.NewRegistry()
	for _, a := range []*fakeAdapter{set.postgres, set.clickhouse, set.trino, set.duckdb} {
		if err := registry.Register(a); err != nil {
			t.Fatalf("register %s: %v", a.name, err)
		}
	}

	rtr, err := router.NewRouter(registry, router.Config{
		QueryTimeout: time.Second,
		Retry:        adapters.RetryConfig{MaxAttempts: 1},
	}, observability.NewNoopLogger(), nil)
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	gw, err := gateway.NewGateway(registry, rtr, nil, nil, gateway.Config{}, nil)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	return gw, set
}

// postQuery sends a /query request and returns the status code, the raw
// body, and the body decoded to a map for key-presence checks.
func postQuery(t *testing.T, gw *gateway.Gateway, payload string) (int, []byte, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	raw, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return rec.Code, raw, decoded
}

func queryJSON(sql, forceEngine string) string {
	body := map[string]string{"sql": sql}
	if forceEngine != "" {
		body["force_engine"] = forceEngine
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func jsonDecode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
