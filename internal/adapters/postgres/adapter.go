// Package postgres provides the transactional engine adapter backed by
// PostgreSQL.
//
// Connection strategy: a fresh connection per call, closed before the call
// returns. Point lookups and writes get full isolation at the cost of a
// dial per query; the router's latency numbers include that dial on
// purpose, because hiding it would misreport what the engine costs.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/classifier"

	// Postgres driver
	_ "github.com/lib/pq"
)

// Config configures the PostgreSQL adapter.
type Config struct {
	// Host is the database host.
	Host string

	// Port is the database port (default 5432).
	Port int

	// Database is the database name.
	Database string

	// User is the database user.
	User string

	// Password is the database password.
	Password string

	// SSLMode controls SSL: disable, require, verify-ca, verify-full
	SSLMode string

	// ConnectTimeout bounds the per-call dial.
	ConnectTimeout time.Duration
}

// DefaultConfig returns a default configuration matching the docker-compose
// development stack.
func DefaultConfig() Config {
	return Config{
		Host:           "postgres_app",
		Port:           5432,
		Database:       "app_db",
		User:           "app_user",
		Password:       "app_password",
		SSLMode:        "disable",
		ConnectTimeout: 10 * time.Second,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("postgres adapter: host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("postgres adapter: database is required")
	}
	if c.User == "" {
		return fmt.Errorf("postgres adapter: user is required")
	}
	return nil
}

// dsn builds the lib/pq connection string. connect_timeout is in seconds.
func (c Config) dsn() string {
	timeout := int(c.ConnectTimeout / time.Second)
	if timeout <= 0 {
		timeout = 10
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=%d",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode, timeout,
	)
}

// openFunc opens a database handle. Swapped for a mock in tests.
type openFunc func(driverName, dataSourceName string) (*sql.DB, error)

// Adapter implements the EngineAdapter interface for PostgreSQL.
type Adapter struct {
	mu     sync.RWMutex
	config Config
	open   openFunc
	closed bool
}

// NewAdapter creates a new PostgreSQL adapter. No connection is made here:
// the per-call strategy means the first dial happens on the first query,
// and CheckHealth is the way to probe reachability.
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
	return "postgres"
}

// Label returns the routing label this adapter serves.
func (a *Adapter) Label() classifier.Label {
	return classifier.LabelTransactional
}

// Execute runs a statement on a fresh connection and closes it before
// returning. Statements without a result set report Status "ok";
// database/sql runs in auto-commit mode, so writes are durable when the
// call returns.
func (a *Adapter) Execute(ctx context.Context, sqlText string) (*adapters.QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, fmt.Errorf("postgres adapter: adapter is closed")
	}

	db, err := a.open("postgres", a.config.dsn())
	if err != nil {
		return nil, fmt.Errorf("postgres adapter: failed to open connection: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("postgres adapter: query failed: %w", err)
	}
	defer rows.Close()

	result, err := adapters.Collect(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres adapter: %w", err)
	}
	return result, nil
}

// CheckHealth verifies PostgreSQL is reachable.
func (a *Adapter) CheckHealth(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("postgres adapter: adapter is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := a.open("postgres", a.config.dsn())
	if err != nil {
		return fmt.Errorf("postgres adapter: failed to open connection: %w", err)
	}
	defer db.Close()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("postgres adapter: health check failed: %w", err)
	}

	return nil
}

// Close marks the adapter closed. There is no held connection to release;
// per-call handles are closed inside Execute.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	return nil
}

// Ensure Adapter implements EngineAdapter interface
var _ adapters.EngineAdapter = (*Adapter)(nil)
