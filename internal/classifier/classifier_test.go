package classifier

import (
	"strings"
	"testing"
)

// TestClassify_RoutingTable covers the core routing decisions across all
// four labels.
func TestClassify_RoutingTable(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want Label
	}{
		// Transactional: point lookups on id.
		{"select by id", "SELECT * FROM users WHERE id = 1", LabelTransactional},
		{"select by id no spaces", "SELECT * FROM users WHERE id=42", LabelTransactional},
		{"select by qualified id", "SELECT u.name FROM users u WHERE u.id = 7", LabelTransactional},

		// Transactional: writes and definitions.
		{"insert", "INSERT INTO users VALUES (1, 'Bob', 'User')", LabelTransactional},
		{"update", "UPDATE users SET name = 'Alice' WHERE id = 1", LabelTransactional},
		{"update without id", "UPDATE users SET name = 'Alice' WHERE role = 'Admin'", LabelTransactional},
		{"delete", "DELETE FROM users WHERE role = 'User'", LabelTransactional},
		{"create table", "CREATE TABLE orders (id INT, total INT)", LabelTransactional},

		// Columnar: single-table aggregations.
		{"count star", "SELECT COUNT(*) FROM users", LabelColumnar},
		{"lowercase count", "SELECT count(*) FROM users", LabelColumnar},
		{"sum with group by", "SELECT role, SUM(total) FROM orders GROUP BY role", LabelColumnar},
		{"avg", "SELECT AVG(total) FROM orders", LabelColumnar},

		// Federation: joins win over aggregates.
		{"plain join", "SELECT u.name, o.id FROM users u JOIN orders o ON u.id = o.user_id", LabelFederation},
		{"self join", "SELECT a.name, b.role FROM users a JOIN users b ON a.id = b.id", LabelFederation},
		{"aggregate with join", "SELECT u.role, COUNT(o.id) FROM users u JOIN orders o ON u.id = o.user_id GROUP BY u.role", LabelFederation},
		{"left join", "SELECT u.name FROM users u LEFT JOIN orders o ON u.id = o.user_id", LabelFederation},

		// Ad-hoc: plain scans and everything else.
		{"plain scan", "SELECT * FROM users", LabelAdHoc},
		{"scan with limit", "SELECT * FROM users LIMIT 10", LabelAdHoc},
		{"filter without id", "SELECT name FROM users WHERE role = 'guest'", LabelAdHoc},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.sql)
			if got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.sql, got, tt.want)
			}
		})
	}
}

// TestClassify_MalformedInputNeverFails verifies that unparsable input
// degrades to the ad-hoc label without panicking or erroring.
func TestClassify_MalformedInputNeverFails(t *testing.T) {
	inputs := []string{
		"SELEC * FRO",
		"",
		"not sql at all",
		"SELECT * FROM",
		"SELECT * FROM 'my_file.csv'",
		";;;",
	}

	c := New()
	for _, sql := range inputs {
		got := c.Classify(sql)
		if got != LabelAdHoc {
			t.Errorf("Classify(%q) = %s, want %s", sql, got, LabelAdHoc)
		}
	}
}

// TestClassify_IDCheckPrecedesAggregates verifies that a SELECT with an id
// equality wins over aggregate detection.
func TestClassify_IDCheckPrecedesAggregates(t *testing.T) {
	c := New()
	got := c.Classify("SELECT COUNT(*) FROM users WHERE id = 3")
	if got != LabelTransactional {
		t.Errorf("id equality should take precedence, got %s", got)
	}
}

// TestClassify_AggregateMatchIsRawSubstring verifies the aggregate check
// runs over the whole statement text, not just the SELECT list. A column
// merely containing an aggregate word flips the label. This pins a known
// heuristic limitation.
func TestClassify_AggregateMatchIsRawSubstring(t *testing.T) {
	c := New()

	got := c.Classify("SELECT account FROM users")
	if got != LabelColumnar {
		t.Errorf("substring match on 'count' inside 'account' should yield %s, got %s", LabelColumnar, got)
	}

	// 'Admin' uppercases to ADMIN, which contains MIN.
	got = c.Classify("SELECT name FROM users WHERE role = 'Admin'")
	if got != LabelColumnar {
		t.Errorf("substring match on 'min' inside 'Admin' should yield %s, got %s", LabelColumnar, got)
	}
}

// TestClassify_DropIsNotAWrite verifies only CREATE counts among DDL
// actions; DROP flows through to the default label.
func TestClassify_DropIsNotAWrite(t *testing.T) {
	c := New()
	got := c.Classify("DROP TABLE orders")
	if got != LabelAdHoc {
		t.Errorf("DROP should fall through to %s, got %s", LabelAdHoc, got)
	}
}

// TestExplain_ReasonNamesTheRule verifies Explain returns the same label
// as Classify plus a description of the rule that fired.
func TestExplain_ReasonNamesTheRule(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		wantLabel  Label
		wantReason string
	}{
		{"point lookup", "SELECT * FROM users WHERE id = 1", LabelTransactional, "point lookup"},
		{"write", "INSERT INTO users VALUES (1, 'Bob', 'User')", LabelTransactional, "write statement"},
		{"aggregation", "SELECT COUNT(*) FROM users", LabelColumnar, "aggregation"},
		{"join", "SELECT u.name FROM users u JOIN orders o ON u.id = o.user_id", LabelFederation, "join"},
		{"parse failure", "SELEC * FRO users", LabelAdHoc, "did not parse"},
		{"plain scan", "SELECT * FROM users", LabelAdHoc, "no routing signal"},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, reason := c.Explain(tt.sql)
			if label != tt.wantLabel {
				t.Errorf("Explain(%q) label = %s, want %s", tt.sql, label, tt.wantLabel)
			}
			if !strings.Contains(reason, tt.wantReason) {
				t.Errorf("Explain(%q) reason = %q, want it to mention %q", tt.sql, reason, tt.wantReason)
			}
		})
	}
}

// TestLabel_IsValid verifies the closed label set.
func TestLabel_IsValid(t *testing.T) {
	for _, l := range AllLabels() {
		if !l.IsValid() {
			t.Errorf("label %s should be valid", l)
		}
	}
	if Label("spark").IsValid() {
		t.Error("unknown label should not be valid")
	}
}

// TestLabel_EngineName verifies the 1:1 label to engine-name mapping.
func TestLabel_EngineName(t *testing.T) {
	tests := []struct {
		label Label
		want  string
	}{
		{LabelTransactional, "postgres"},
		{LabelColumnar, "clickhouse"},
		{LabelFederation, "trino"},
		{LabelAdHoc, "duckdb"},
	}
	for _, tt := range tests {
		if got := tt.label.EngineName(); got != tt.want {
			t.Errorf("EngineName(%s) = %s, want %s", tt.label, got, tt.want)
		}
	}
	if got := Label("spark").EngineName(); got != "" {
		t.Errorf("unknown label should map to empty name, got %q", got)
	}
}
