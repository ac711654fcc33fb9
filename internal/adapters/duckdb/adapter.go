// Package duckdb provides the ad-hoc engine adapter backed by an embedded
// DuckDB instance.
//
// The instance lives for the process lifetime and is capped at a single
// session, mirroring one long-lived connection: ad-hoc statements are
// serialized, and everything the setup phase creates (extensions, the
// object-store secret, the seeded fallback table) stays visible to every
// call.
//
// Execution tries the object store first: logical table names are rewritten
// to read_parquet() scans over the lake bucket. When that fails for any
// reason the adapter logs a warning and runs the original statement once
// against the local seeded table. The fallback is invisible in the
// response; only the logs say which path served the query.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/classifier"
	"github.com/switchyard-labs/switchyard/internal/rewrite"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Config configures the DuckDB adapter.
type Config struct {
	// Path is the path to the DuckDB database file.
	// Use ":memory:" (or leave empty) for an in-memory database.
	Path string

	// StoreEndpoint is the object store address for the S3 secret.
	StoreEndpoint string

	// Bucket is the lake bucket holding Parquet data.
	Bucket string

	// AccessKey and SecretKey are the object store credentials.
	AccessKey string
	SecretKey string

	// Rewrites are tried before falling back to the local table.
	Rewrites []rewrite.Rule

	// Logger receives setup warnings and fallback notices.
	// Defaults to the standard logger.
	Logger *log.Logger
}

// DefaultConfig returns a default configuration matching the docker-compose
// development stack, including the users table rewrite.
func DefaultConfig() Config {
	return Config{
		Path:          ":memory:",
		StoreEndpoint: "minio:9000",
		Bucket:        "lake-data",
		AccessKey:     "admin",
		SecretKey:     "password",
		Rewrites: []rewrite.Rule{
			ParquetRule("users", "lake-data"),
		},
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("duckdb adapter: bucket is required")
	}
	if c.StoreEndpoint == "" {
		return fmt.Errorf("duckdb adapter: store endpoint is required")
	}
	return nil
}

// ParquetRule builds the rewrite rule pointing a logical table at its
// Parquet files in the lake bucket. Any mention of the table name fires it;
// the read_parquet glob skips the Iceberg metadata and reads data files
// directly.
func ParquetRule(table, bucket string) rewrite.Rule {
	return rewrite.Rule{
		Table:   table,
		Locator: fmt.Sprintf("read_parquet('s3://%s/data/%s*/data/*.parquet')", bucket, table),
	}
}

// Adapter implements the EngineAdapter interface for DuckDB.
type Adapter struct {
	mu     sync.RWMutex
	config Config
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
	closed bool
}

// NewAdapter creates a new DuckDB adapter and runs the setup phase:
// extensions, the object-store secret, and the seeded fallback table.
// Setup statements that fail are logged and skipped, never fatal - the
// ad-hoc engine must come up even when the object store is unreachable.
func NewAdapter(config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	path := config.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("duckdb adapter: failed to open database: %w", err)
	}

	// Single session: ad-hoc queries serialize, and setup state stays
	// visible to every call.
	db.SetMaxOpenConns(1)

	a := &Adapter{
		config: config,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
	a.setup()

	return a, nil
}

// setup installs extensions, registers the object-store secret, and seeds
// the local fallback table. Statements run independently so a missing
// extension does not cost us the seeded table.
func (a *Adapter) setup() {
	statements := []string{
		"INSTALL iceberg",
		"LOAD iceberg",
		"INSTALL httpfs",
		"LOAD httpfs",
		fmt.Sprintf(
			"CREATE SECRET s3 (TYPE S3, KEY_ID '%s', SECRET '%s', ENDPOINT '%s', URL_STYLE 'path', USE_SSL false)",
			a.config.AccessKey, a.config.SecretKey, a.config.StoreEndpoint,
		),
		"CREATE TABLE IF NOT EXISTS users (id INTEGER, name VARCHAR, role VARCHAR)",
		"INSERT OR IGNORE INTO users VALUES (1, 'Local Alice', 'Admin'), (2, 'Local Bob', 'User')",
	}

	for _, stmt := range statements {
		if _, err := a.db.Exec(stmt); err != nil {
			a.logger.Printf("duckdb setup warning: %v", err)
		}
	}
}

// Name returns the engine name.
func (a *Adapter) Name() string {
	return "duckdb"
}

// Label returns the routing label this adapter serves.
func (a *Adapter) Label() classifier.Label {
	return classifier.LabelAdHoc
}

// Execute tries the object-store form of the statement first, then falls
// back to the original statement against the local table. Exactly one
// fallback attempt, never recursive; the second error is the terminal one.
func (a *Adapter) Execute(ctx context.Context, sqlText string) (*adapters.QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, fmt.Errorf("duckdb adapter: adapter is closed")
	}

	storeSQL := sqlText
	for _, rule := range a.config.Rewrites {
		storeSQL, _ = rule.Apply(storeSQL)
	}

	result, err := a.query(ctx, storeSQL)
	if err == nil {
		return result, nil
	}

	a.logger.Printf("duckdb object-store read failed (%v), falling back to local table", err)

	result, err = a.query(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("duckdb adapter: query failed: %w", err)
	}
	return result, nil
}

// query runs one statement on the embedded session.
func (a *Adapter) query(ctx context.Context, sqlText string) (*adapters.QueryResult, error) {
	rows, err := a.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return adapters.Collect(rows)
}

// Ingest copies a CSV file into the lake bucket as a timestamped Parquet
// file under the table's data prefix, where the read_parquet rewrite will
// pick it up. Returns the object path written.
func (a *Adapter) Ingest(ctx context.Context, table, csvPath string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return "", fmt.Errorf("duckdb adapter: adapter is closed")
	}
	if table == "" {
		return "", fmt.Errorf("duckdb adapter: table name is required")
	}
	if csvPath == "" {
		return "", fmt.Errorf("duckdb adapter: csv path is required")
	}

	uploadPath := fmt.Sprintf("s3://%s/data/%s/%d.parquet", a.config.Bucket, table, a.now().Unix())
	stmt := fmt.Sprintf(
		"COPY (SELECT * FROM read_csv_auto('%s')) TO '%s' (FORMAT 'parquet')",
		csvPath, uploadPath,
	)

	if _, err := a.db.ExecContext(ctx, stmt); err != nil {
		return "", fmt.Errorf("duckdb adapter: ingestion failed: %w", err)
	}

	return uploadPath, nil
}

// CheckHealth verifies the embedded session answers queries.
func (a *Adapter) CheckHealth(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("duckdb adapter: adapter is closed")
	}

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("duckdb adapter: health check failed: %w", err)
	}

	return nil
}

// Close releases the embedded database.
// Close is idempotent - safe to call multiple times.
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
