// Package trino provides the federation engine adapter backed by Trino.
//
// Connection strategy: a fresh connection per call, closed before the call
// returns. Trino fronts its own catalogs (Iceberg over the object store in
// the development stack), so statements pass through without rewriting -
// the coordinator resolves table names itself.
package trino

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/classifier"

	// Trino driver
	_ "github.com/trinodb/trino-go-client/trino"
)

// Config configures the Trino adapter.
type Config struct {
	// Host is the Trino coordinator hostname.
	Host string

	// Port is the Trino coordinator port.
	Port int

	// Catalog is the default Trino catalog.
	Catalog string

	// Schema is the default Trino schema.
	Schema string

	// User is the Trino user for queries.
	User string

	// SSLMode controls SSL/TLS: "", "disable", "require"
	SSLMode string

	// ConnectTimeout bounds the health probe.
	ConnectTimeout time.Duration
}

// DefaultConfig returns a default configuration matching the docker-compose
// development stack.
func DefaultConfig() Config {
	return Config{
		Host:           "trino",
		Port:           8080,
		Catalog:        "iceberg",
		Schema:         "public",
		User:           "admin",
		ConnectTimeout: 10 * time.Second,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("trino adapter: host is required")
	}
	if c.Catalog == "" {
		return fmt.Errorf("trino adapter: catalog is required")
	}
	if c.User == "" {
		return fmt.Errorf("trino adapter: user is required")
	}
	return nil
}

// dsn builds the Trino connection string.
// Format: http[s]://user@host:port?catalog=X&schema=Y
func (c Config) dsn() string {
	scheme := "http"
	if c.SSLMode == "require" {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s@%s:%d?catalog=%s&schema=%s",
		scheme, c.User, c.Host, c.Port, c.Catalog, c.Schema)
}

// openFunc opens a database handle. Swapped for a mock in tests.
type openFunc func(driverName, dataSourceName string) (*sql.DB, error)

// Adapter implements the EngineAdapter interface for Trino.
type Adapter struct {
	mu     sync.RWMutex
	config Config
	open   openFunc
	closed bool
}

// NewAdapter creates a new Trino adapter. No connection is made here; the
// per-call strategy dials on the first query.
func NewAdapter(config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Adapter{
		config: config,
		open:   sql.Open,
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "trino"
}

// Label returns the routing label this adapter serves.
func (a *Adapter) Label() classifier.Label {
	return classifier.LabelFederation
}

// Execute runs a statement on a fresh connection and closes it before
// returning. No rewriting: Trino resolves table names through its own
// catalogs.
func (a *Adapter) Execute(ctx context.Context, sqlText string) (*adapters.QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, fmt.Errorf("trino adapter: adapter is closed")
	}

	db, err := a.open("trino", a.config.dsn())
	if err != nil {
		return nil, fmt.Errorf("trino adapter: failed to open connection: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("trino adapter: query failed: %w", err)
	}
	defer rows.Close()

	result, err := adapters.Collect(rows)
	if err != nil {
		return nil, fmt.Errorf("trino adapter: %w", err)
	}
	return result, nil
}

// CheckHealth verifies the Trino coordinator is reachable.
func (a *Adapter) CheckHealth(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("trino adapter: adapter is closed")
	}

	timeout := a.config.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := a.open("trino", a.config.dsn())
	if err != nil {
		return fmt.Errorf("trino adapter: failed to open connection: %w", err)
	}
	defer db.Close()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("trino adapter: health check failed: %w", err)
	}

	return nil
}

// Close marks the adapter closed. Per-call handles are closed inside
// Execute.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	return nil
}

// Ensure Adapter implements EngineAdapter interface
var _ adapters.EngineAdapter = (*Adapter)(nil)
