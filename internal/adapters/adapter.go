// Package adapters defines the common interface for engine adapters and the
// registry that holds one adapter per routing label.
//
// Adapters are thin translation layers: they own their connection strategy
// (per-call, pooled, or embedded) and nothing else. Errors propagate
// explicitly; the one sanctioned fallback (the ad-hoc engine's local-table
// retry) lives inside its adapter and is visible in the result, not hidden.
package adapters

import (
	"context"
	"sort"
	"strings"

	"github.com/switchyard-labs/switchyard/internal/classifier"
	"github.com/switchyard-labs/switchyard/internal/errors"
)

// QueryResult represents the result of a query execution.
type QueryResult struct {
	// Columns are the column names in result order. Empty for statements
	// that produce no result set.
	Columns []string

	// Rows are the result rows keyed by column name.
	Rows []map[string]interface{}

	// Status is set instead of Columns/Rows for statements without a
	// result set ("ok" on success).
	Status string
}

// RowCount returns the number of rows in the result.
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// EngineAdapter is the interface all engine adapters must implement.
// Adapters must be:
// - Thin: minimal logic, just translation and connection handling
// - Explicit: errors propagate, no silent retries
// - Safe for concurrent use: Execute may be called from many goroutines
type EngineAdapter interface {
	// Name returns the unique lowercase name of this engine.
	Name() string

	// Label returns the routing label this adapter serves.
	Label() classifier.Label

	// Execute runs a SQL statement and returns the result.
	// Must propagate errors explicitly - never swallow.
	Execute(ctx context.Context, sql string) (*QueryResult, error)

	// CheckHealth verifies the adapter can reach its backend.
	// Returns nil if healthy, error with details if not.
	// Used by /readyz to report per-adapter health status.
	CheckHealth(ctx context.Context) error

	// Close releases any resources held by the adapter.
	Close() error
}

// Registry manages engine adapters. Lookups by name are case-insensitive;
// lookups by label resolve the classifier's routing decision. Registration
// order is preserved for stable reporting.
type Registry struct {
	names   []string
	byName  map[string]EngineAdapter
	byLabel map[classifier.Label]EngineAdapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]EngineAdapter),
		byLabel: make(map[classifier.Label]EngineAdapter),
	}
}

// Register adds an adapter to the registry. Each name and each routing
// label may be claimed by exactly one adapter.
func (r *Registry) Register(adapter EngineAdapter) error {
	name := strings.ToLower(adapter.Name())
	if name == "" {
		return errors.NewValidation("adapter name must not be empty")
	}
	if _, exists := r.byName[name]; exists {
		return errors.NewValidation("duplicate adapter name: " + name)
	}

	label := adapter.Label()
	if !label.IsValid() {
		return errors.NewValidation("adapter " + name + " has invalid label: " + label.String())
	}
	if claimed, exists := r.byLabel[label]; exists {
		return errors.NewValidation("label " + label.String() + " already claimed by " + claimed.Name())
	}

	r.names = append(r.names, name)
	r.byName[name] = adapter
	r.byLabel[label] = adapter
	return nil
}

// Get returns an adapter by name. Matching is case-insensitive.
func (r *Registry) Get(name string) (EngineAdapter, bool) {
	adapter, ok := r.byName[strings.ToLower(name)]
	return adapter, ok
}

// ForLabel returns the adapter registered for a routing label.
func (r *Registry) ForLabel(label classifier.Label) (EngineAdapter, bool) {
	adapter, ok := r.byLabel[label]
	return adapter, ok
}

// Names returns the names of all registered adapters in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Validate checks that every routing label has an adapter. The router
// cannot start with a partial registry: a classifiable statement must
// always have somewhere to go.
func (r *Registry) Validate() error {
	var missing []string
	for _, label := range classifier.AllLabels() {
		if _, ok := r.byLabel[label]; !ok {
			missing = append(missing, label.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.NewRegistryIncomplete(missing)
	}
	return nil
}

// CheckAllHealth checks the health of all registered adapters.
// Returns a map of adapter name to health status; a nil error value
// indicates the adapter is healthy.
func (r *Registry) CheckAllHealth(ctx context.Context) map[string]error {
	results := make(map[string]error, len(r.names))
	for _, name := range r.names {
		results[name] = r.byName[name].CheckHealth(ctx)
	}
	return results
}

// CloseAll closes all registered adapters.
func (r *Registry) CloseAll() error {
	var lastErr error
	for _, name := range r.names {
		if err := r.byName[name].Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// IsEmpty returns true if no adapters are registered.
func (r *Registry) IsEmpty() bool {
	return len(r.byName) == 0
}
