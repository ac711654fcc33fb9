// Package main is the entrypoint for the switchyard gateway server.
// The gateway accepts SQL over HTTP, classifies each statement by shape,
// and routes it to one of four engines: postgres for writes and point
// lookups, clickhouse for aggregations, trino for joins, and duckdb for
// everything else.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/switchyard-labs/switchyard/internal/adapters"
	"github.com/switchyard-labs/switchyard/internal/adapters/clickhouse"
	"github.com/switchyard-labs/switchyard/internal/adapters/duckdb"
	"github.com/switchyard-labs/switchyard/internal/adapters/postgres"
	"github.com/switchyard-labs/switchyard/internal/adapters/trino"
	"github.com/switchyard-labs/switchyard/internal/config"
	"github.com/switchyard-labs/switchyard/internal/gateway"
	"github.com/switchyard-labs/switchyard/internal/observability"
	"github.com/switchyard-labs/switchyard/internal/rewrite"
	"github.com/switchyard-labs/switchyard/internal/router"
	"github.com/switchyard-labs/switchyard/internal/storage/s3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Path to config.yaml (optional)")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		showVer    = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("switchyard-gateway %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Build the four engine adapters. Construction does not dial anything
	// except duckdb, which opens its embedded database; a backend that is
	// down surfaces per query, not at startup.
	registry := adapters.NewRegistry()

	pgAdapter, err := postgres.NewAdapter(postgres.Config{
		Host:     cfg.Engines.Postgres.Host,
		Port:     cfg.Engines.Postgres.Port,
		Database: cfg.Engines.Postgres.Database,
		User:     cfg.Engines.Postgres.User,
		Password: cfg.Engines.Postgres.Password,
		SSLMode:  cfg.Engines.Postgres.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("postgres adapter: %w", err)
	}
	if err := registry.Register(pgAdapter); err != nil {
		return err
	}
	log.Printf("Registered postgres adapter at %s:%d", cfg.Engines.Postgres.Host, cfg.Engines.Postgres.Port)

	chAdapter, err := clickhouse.NewAdapter(clickhouse.Config{
		Host:     cfg.Engines.ClickHouse.Host,
		Port:     cfg.Engines.ClickHouse.Port,
		Database: cfg.Engines.ClickHouse.Database,
		User:     cfg.Engines.ClickHouse.User,
		Password: cfg.Engines.ClickHouse.Password,
		Rewrites: []rewrite.Rule{
			clickhouse.ObjectStoreRule("users", cfg.Storage.Endpoint, cfg.Storage.Bucket,
				cfg.Storage.AccessKey, cfg.Storage.SecretKey),
		},
	})
	if err != nil {
		return fmt.Errorf("clickhouse adapter: %w", err)
	}
	if err := registry.Register(chAdapter); err != nil {
		return err
	}
	log.Printf("Registered clickhouse adapter at %s:%d", cfg.Engines.ClickHouse.Host, cfg.Engines.ClickHouse.Port)

	trinoAdapter, err := trino.NewAdapter(trino.Config{
		Host:    cfg.Engines.Trino.Host,
		Port:    cfg.Engines.Trino.Port,
		Catalog: cfg.Engines.Trino.Catalog,
		Schema:  cfg.Engines.Trino.Schema,
		User:    cfg.Engines.Trino.User,
	})
	if err != nil {
		return fmt.Errorf("trino adapter: %w", err)
	}
	if err := registry.Register(trinoAdapter); err != nil {
		return err
	}
	log.Printf("Registered trino adapter at %s:%d", cfg.Engines.Trino.Host, cfg.Engines.Trino.Port)

	duckAdapter, err := duckdb.NewAdapter(duckdb.Config{
		Path:          cfg.Engines.DuckDB.Path,
		StoreEndpoint: cfg.Storage.Endpoint,
		Bucket:        cfg.Storage.Bucket,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Rewrites: []rewrite.Rule{
			duckdb.ParquetRule("users", cfg.Storage.Bucket),
		},
	})
	if err != nil {
		return fmt.Errorf("duckdb adapter: %w", err)
	}
	if err := registry.Register(duckAdapter); err != nil {
		return err
	}
	log.Printf("Registered duckdb adapter (%s)", cfg.Engines.DuckDB.Path)

	// Audit trail: sqlite history when a path is configured, JSON lines to
	// stderr otherwise.
	var audit observability.QueryLogger
	if cfg.Logging.AuditPath != "" {
		db, err := observability.OpenHistoryDB(cfg.Logging.AuditPath)
		if err != nil {
			return err
		}
		defer db.Close()
		historyLogger, err := observability.NewHistoryLogger(db)
		if err != nil {
			return err
		}
		audit = historyLogger
		log.Printf("Query history persisted to %s", cfg.Logging.AuditPath)
	} else {
		audit = observability.NewJSONLogger(os.Stderr)
	}

	rtr, err := router.NewRouter(registry, router.Config{
		QueryTimeout: cfg.Server.QueryTimeout,
		Retry:        adapters.DefaultRetryConfig(),
	}, audit, nil)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	// The object store client serves /tables and the startup bucket check.
	// A missing or unreachable store degrades those endpoints, not routing.
	store, err := s3.New(s3.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKey,
		SecretAccessKey: cfg.Storage.SecretKey,
		UseSSL:          cfg.Storage.UseSSL,
	})
	var tables gateway.TableLister
	if err != nil {
		log.Printf("WARNING: Object store disabled: %v", err)
	} else {
		tables = store
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureBucket(bucketCtx); err != nil {
			log.Printf("WARNING: Lake bucket check failed: %v", err)
		}
		cancel()
	}

	gw, err := gateway.NewGateway(registry, rtr, tables, duckAdapter, gateway.Config{
		Version: version,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      gw,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Handle graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down gateway...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
		if err := registry.CloseAll(); err != nil {
			log.Printf("Adapter close error: %v", err)
		}
		close(done)
	}()

	log.Printf("Switchyard gateway starting on %s", cfg.Server.Addr)
	log.Printf("Version: %s, Commit: %s", version, commit)
	log.Printf("Engines: postgres, clickhouse, trino, duckdb")
	log.Printf("Health check: http://localhost%s/health", cfg.Server.Addr)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	log.Println("Gateway stopped")
	return nil
}
