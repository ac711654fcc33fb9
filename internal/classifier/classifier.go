// Package classifier derives an engine label from the syntactic shape of a
// SQL statement. It is a bounded heuristic, not a query planner: decisions
// are made from statement kind, WHERE text, join presence, and aggregate
// keywords, in a fixed precedence order.
package classifier

import (
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Label identifies which engine variant should execute a statement.
// The set is closed; each label maps 1:1 to a registered engine name.
type Label string

const (
	// LabelTransactional routes point lookups and write statements to the
	// row-oriented store.
	LabelTransactional Label = "transactional"

	// LabelColumnar routes single-table aggregations to the columnar store.
	LabelColumnar Label = "columnar"

	// LabelFederation routes joins to the distributed query engine.
	LabelFederation Label = "federation"

	// LabelAdHoc is the default for plain scans, exploratory queries, and
	// anything the parser could not classify.
	LabelAdHoc Label = "ad-hoc"
)

// AllLabels returns all valid labels in routing-precedence order.
func AllLabels() []Label {
	return []Label{
		LabelTransactional,
		LabelColumnar,
		LabelFederation,
		LabelAdHoc,
	}
}

// IsValid checks if the label is a known valid label.
func (l Label) IsValid() bool {
	for _, valid := range AllLabels() {
		if l == valid {
			return true
		}
	}
	return false
}

// String returns the string representation of the label.
func (l Label) String() string {
	return string(l)
}

// EngineName returns the registry name conventionally bound to the label.
// The registry is the runtime authority; this mapping exists for display
// and for resolving a label when no registry is at hand.
func (l Label) EngineName() string {
	switch l {
	case LabelTransactional:
		return "postgres"
	case LabelColumnar:
		return "clickhouse"
	case LabelFederation:
		return "trino"
	case LabelAdHoc:
		return "duckdb"
	}
	return ""
}

// aggregateKeywords are matched as raw substrings over the uppercased
// statement text. The match is deliberately not scoped to the SELECT list:
// a column or string literal containing "count" also triggers it. That
// looseness is part of the routing contract.
var aggregateKeywords = []string{"COUNT", "SUM", "AVG", "MIN", "MAX"}

// Classifier derives a Label from SQL text. It never fails: unparsable
// input degrades to LabelAdHoc.
type Classifier struct{}

// New creates a new Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify returns exactly one label for the statement. Precedence, first
// match wins:
//
//  1. parse failure                                   -> ad-hoc
//  2. SELECT with a WHERE mentioning "id =" or "id="  -> transactional
//  3. INSERT / UPDATE / DELETE / CREATE               -> transactional
//  4. SELECT with aggregate keyword and no join       -> columnar
//  5. any join                                        -> federation
//  6. everything else                                 -> ad-hoc
func (c *Classifier) Classify(sql string) Label {
	label, _ := c.Explain(sql)
	return label
}

// Explain returns the label together with a one-line description of the
// rule that selected it. Classify is Explain without the description.
func (c *Classifier) Explain(sql string) (Label, string) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return LabelAdHoc, "statement did not parse; routed to the default engine"
	}

	if sel, ok := stmt.(*sqlparser.Select); ok && hasIDEquality(sel) {
		return LabelTransactional, "point lookup: WHERE clause tests equality on an id column"
	}

	if isWriteStatement(stmt) {
		return LabelTransactional, "write statement"
	}

	isAggregate := containsAggregateKeyword(sql)
	hasJoin := containsJoin(stmt)

	if _, ok := stmt.(*sqlparser.Select); ok && isAggregate && !hasJoin {
		return LabelColumnar, "single-table aggregation: aggregate keyword, no join"
	}
	if hasJoin {
		return LabelFederation, "multi-table join"
	}
	return LabelAdHoc, "no routing signal in the statement shape"
}

// hasIDEquality reports whether any WHERE clause in the statement,
// subqueries included, contains an equality test on a column named id.
// The test is a substring match over the rendered clause text, so columns
// like user_id also match. Known limitation, kept by contract.
func hasIDEquality(sel *sqlparser.Select) bool {
	found := false
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		where, ok := node.(*sqlparser.Where)
		if !ok || where == nil {
			return true, nil
		}
		text := strings.ToLower(sqlparser.String(where))
		if strings.Contains(text, "id =") || strings.Contains(text, "id=") {
			found = true
			return false, nil
		}
		return true, nil
	}, sel)
	return found
}

// isWriteStatement reports whether the statement writes or defines data.
// Only CREATE counts among DDL actions; DROP and ALTER fall through to the
// default label.
func isWriteStatement(stmt sqlparser.Statement) bool {
	switch stmt := stmt.(type) {
	case *sqlparser.Insert, *sqlparser.Update, *sqlparser.Delete:
		return true
	case *sqlparser.DDL:
		return stmt.Action == sqlparser.CreateStr
	}
	return false
}

// containsJoin reports whether the parsed statement contains any JOIN
// table expression. Comma-separated FROM lists do not count.
func containsJoin(stmt sqlparser.Statement) bool {
	found := false
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if _, ok := node.(*sqlparser.JoinTableExpr); ok {
			found = true
			return false, nil
		}
		return true, nil
	}, stmt)
	return found
}

// containsAggregateKeyword checks the raw statement text for aggregate
// keywords, case-insensitively.
func containsAggregateKeyword(sql string) bool {
	upper := strings.ToUpper(sql)
	for _, keyword := range aggregateKeywords {
		if strings.Contains(upper, keyword) {
			return true
		}
	}
	return false
}
