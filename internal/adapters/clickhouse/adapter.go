// Package clickhouse provides the columnar engine adapter backed by
// ClickHouse.
//
// Connection strategy: one database handle built at construction and held
// for the process lifetime. The handle is lazy - no TCP happens until the
// first query - and its pool hands each call its own session, so queries
// never share connection state.
//
// Before execution the adapter rewrites logical table names into s3() table
// functions so aggregates scan the Parquet files in the object store rather
// than a local table.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/classifier"
	"github.com/switchyard-labs/switchyard/internal/rewrite"
)

// Config configures the ClickHouse adapter.
type Config struct {
	// Host is the ClickHouse host.
	Host string

	// Port is the native protocol port (default 9000).
	Port int

	// Database is the database name.
	Database string

	// User is the database user.
	User string

	// Password is the database password.
	Password string

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// Rewrites are applied to every statement before execution.
	Rewrites []rewrite.Rule
}

// DefaultConfig returns a default configuration matching the docker-compose
// development stack, including the users table rewrite.
func DefaultConfig() Config {
	return Config{
		Host:        "clickhouse",
		Port:        9000,
		Database:    "default",
		User:        "default",
		Password:    "",
		DialTimeout: 10 * time.Second,
		Rewrites: []rewrite.Rule{
			ObjectStoreRule("users", "minio:9000", "lake-data", "admin", "password"),
		},
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("clickhouse adapter: host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("clickhouse adapter: database is required")
	}
	return nil
}

// ObjectStoreRule builds the rewrite rule pointing a logical table at its
// Parquet files in the object store. The ClickHouse s3() table function
// wants an http URL and inline credentials; the endpoint is the in-network
// address, not the host-published one.
func ObjectStoreRule(table, endpoint, bucket, accessKey, secretKey string) rewrite.Rule {
	return rewrite.Rule{
		Table: table,
		Locator: fmt.Sprintf(
			"s3('http://%s/%s/data/%s*/**/*.parquet', '%s', '%s', 'Parquet')",
			endpoint, bucket, table, accessKey, secretKey,
		),
		Guards: []string{"FROM " + table, "from " + table},
	}
}

// Adapter implements the EngineAdapter interface for ClickHouse.
type Adapter struct {
	mu     sync.RWMutex
	config Config
	db     *sql.DB
	closed bool
}

// NewAdapter creates a new ClickHouse adapter. The handle is built here but
// nothing is dialed until the first query, so construction succeeds even
// when the warehouse is down.
func NewAdapter(config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", config.Host, config.Port)},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.User,
			Password: config.Password,
		},
		DialTimeout: config.DialTimeout,
	})

	return &Adapter{
		config: config,
		db:     db,
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "clickhouse"
}

// Label returns the routing label this adapter serves.
func (a *Adapter) Label() classifier.Label {
	return classifier.LabelColumnar
}

// Execute rewrites the statement and runs it on the shared handle. Each
// call checks out its own pooled session.
func (a *Adapter) Execute(ctx context.Context, sqlText string) (*adapters.QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, fmt.Errorf("clickhouse adapter: adapter is closed")
	}

	for _, rule := range a.config.Rewrites {
		sqlText, _ = rule.Apply(sqlText)
	}

	rows, err := a.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("clickhouse adapter: query failed: %w", err)
	}
	defer rows.Close()

	result, err := adapters.Collect(rows)
	if err != nil {
		return nil, fmt.Errorf("clickhouse adapter: %w", err)
	}
	return result, nil
}

// CheckHealth verifies ClickHouse is reachable.
func (a *Adapter) CheckHealth(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("clickhouse adapter: adapter is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("clickhouse adapter: health check failed: %w", err)
	}

	return nil
}

// Close releases the shared handle.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	a.closed = true
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ensure Adapter implements EngineAdapter interface
var _ adapters.EngineAdapter = (*Adapter)(nil)
