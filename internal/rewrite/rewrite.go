// Package rewrite substitutes physical storage locators for logical table
// names in SQL text.
//
// The substitution is literal text replacement, not AST-aware: every
// occurrence of the table name is replaced, including occurrences inside
// longer identifiers, string literals, and aliases, which it will corrupt.
// This is a known, documented limitation of the routing contract and must
// not be "fixed" into structural rewriting without changing that contract.
package rewrite

import (
	"strings"
)

// Rule maps one logical table name to a physical storage locator.
type Rule struct {
	// Table is the logical name as written in SQL.
	Table string

	// Locator is the remote-file-scan expression substituted for Table.
	Locator string

	// Guards are substrings; the rule fires when any of them appears in
	// the statement. An empty list guards on the bare table name.
	Guards []string
}

// Apply substitutes the locator for every textual occurrence of the table
// name when a guard matches. It returns the resulting SQL and whether a
// substitution happened; unmatched statements pass through untouched.
func (r Rule) Apply(sql string) (string, bool) {
	if r.Table == "" || r.Locator == "" {
		return sql, false
	}

	guards := r.Guards
	if len(guards) == 0 {
		guards = []string{r.Table}
	}

	matched := false
	for _, guard := range guards {
		if strings.Contains(sql, guard) {
			matched = true
			break
		}
	}
	if !matched {
		return sql, false
	}

	return strings.ReplaceAll(sql, r.Table, r.Locator), true
}
