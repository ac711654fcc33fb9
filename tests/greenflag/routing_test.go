package greenflag

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRouting_ShapeSelectsEngine verifies that each statement shape lands
// on its engine through the full HTTP path.
//
// Green-Flag: classification must be deterministic across all four labels.
func TestRouting_ShapeSelectsEngine(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		engine string
	}{
		{"insert goes transactional", "INSERT INTO users (name) VALUES ('Alice')", "postgres"},
		{"update goes transactional", "UPDATE users SET role = 'admin' WHERE id = 7", "postgres"},
		{"point lookup goes transactional", "SELECT * FROM users WHERE id = 42", "postgres"},
		{"count goes columnar", "SELECT count(*) FROM events", "clickhouse"},
		{"group by goes columnar", "SELECT region, sum(total) FROM sales GROUP BY region", "clickhouse"},
		{"join goes federation", "SELECT * FROM orders o JOIN users u ON o.user_id = u.id", "trino"},
		{"plain select goes ad-hoc", "SELECT * FROM users", "duckdb"},
		{"ddl goes ad-hoc", "DROP TABLE scratch", "duckdb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, set := newTestGateway(t)

			code, _, body := postQuery(t, gw, queryJSON(tt.sql, ""))
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200", code)
			}
			if body["engine"] != tt.engine {
				t.Errorf("engine = %v, want %s", body["engine"], tt.engine)
			}
			if got := set.byName(tt.engine).calls.Load(); got != 1 {
				t.Errorf("%s executed %d times, want 1", tt.engine, got)
			}
		})
	}
}

// TestRouting_ForcedEngineWins verifies the override beats classification,
// case-insensitively.
//
// Green-Flag: force_engine must bypass the classifier entirely.
func TestRouting_ForcedEngineWins(t *testing.T) {
	gw, set := newTestGateway(t)

	// An INSERT would classify transactional; the override sends it to
	// duckdb anyway.
	code, _, body := postQuery(t, gw,
		queryJSON("INSERT INTO users (name) VALUES ('Bob')", "DuckDB"))
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["engine"] != "duckdb" {
		t.Errorf("engine = %v, want duckdb", body["engine"])
	}
	if set.duckdb.calls.Load() != 1 {
		t.Errorf("duckdb executed %d times, want 1", set.duckdb.calls.Load())
	}
	if set.postgres.calls.Load() != 0 {
		t.Errorf("postgres executed %d times, want 0", set.postgres.calls.Load())
	}
}

// TestHealth_ListsEnginesInRegistrationOrder verifies the liveness answer.
//
// Green-Flag: /health reports alive plus the registered engine names.
func TestHealth_ListsEnginesInRegistrationOrder(t *testing.T) {
	gw, _ := newTestGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status  string   `json:"status"`
		Engines []string `json:"engines"`
	}
	if err := jsonDecode(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "alive" {
		t.Errorf("status = %q, want alive", body.Status)
	}
	want := []string{"postgres", "clickhouse", "trino", "duckdb"}
	if len(body.Engines) != len(want) {
		t.Fatalf("engines = %v, want %v", body.Engines, want)
	}
	for i, name := range want {
		if body.Engines[i] != name {
			t.Errorf("engines[%d] = %q, want %q", i, body.Engines[i], name)
		}
	}
}
