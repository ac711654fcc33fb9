// Package config provides configuration loading for the switchyard CLI and gateway.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	// Endpoint is the gateway URL the CLI talks to
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Server configuration (for gateway)
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Engines configuration
	Engines EnginesConfig `mapstructure:"engines" yaml:"engines"`

	// Storage configuration (object store backing the lake)
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// QueryTimeout bounds a single engine call made on behalf of a request.
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
}

// EnginesConfig holds the per-engine connection parameters.
type EnginesConfig struct {
	Postgres   PostgresConfig   `mapstructure:"postgres" yaml:"postgres"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse" yaml:"clickhouse"`
	Trino      TrinoConfig      `mapstructure:"trino" yaml:"trino"`
	DuckDB     DuckDBConfig     `mapstructure:"duckdb" yaml:"duckdb"`
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// ClickHouseConfig holds ClickHouse configuration.
type ClickHouseConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// TrinoConfig holds Trino configuration.
type TrinoConfig struct {
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
	Catalog string `mapstructure:"catalog" yaml:"catalog"`
	Schema  string `mapstructure:"schema" yaml:"schema"`
	User    string `mapstructure:"user" yaml:"user"`
}

// DuckDBConfig holds DuckDB configuration.
type DuckDBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// StorageConfig holds object store configuration.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// AuditPath is the SQLite file recording query history. Empty disables it.
	AuditPath string `mapstructure:"audit_path" yaml:"audit_path"`
}

// DefaultConfig returns a configuration with default values. It matches the
// compose topology the gateway ships with, so it is usable without a file.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://localhost:8000",
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			QueryTimeout: 30 * time.Second,
		},
		Engines: EnginesConfig{
			Postgres: PostgresConfig{
				Host:     "postgres_app",
				Port:     5432,
				User:     "app_user",
				Password: "app_password",
				Database: "app_db",
				SSLMode:  "disable",
			},
			ClickHouse: ClickHouseConfig{
				Host:     "clickhouse",
				Port:     9000,
				User:     "default",
				Password: "",
				Database: "default",
			},
			Trino: TrinoConfig{
				Host:    "trino",
				Port:    8080,
				Catalog: "iceberg",
				Schema:  "public",
				User:    "admin",
			},
			DuckDB: DuckDBConfig{
				Path: ":memory:",
			},
		},
		Storage: StorageConfig{
			Endpoint:  "minio:9000",
			Region:    "",
			Bucket:    "lake-data",
			AccessKey: "admin",
			SecretKey: "password",
			UseSSL:    false,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			AuditPath: "",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".switchyard"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables, e.g. SWITCHYARD_SERVER_ADDR, SWITCHYARD_ENGINES_POSTGRES_HOST
	v.SetEnvPrefix("SWITCHYARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	// Unmarshal
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the loaded configuration is internally usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if c.Server.QueryTimeout <= 0 {
		return fmt.Errorf("config: server.query_timeout must be positive")
	}
	if strings.TrimSpace(c.Engines.Postgres.Host) == "" {
		return fmt.Errorf("config: engines.postgres.host is required")
	}
	if strings.TrimSpace(c.Engines.ClickHouse.Host) == "" {
		return fmt.Errorf("config: engines.clickhouse.host is required")
	}
	if strings.TrimSpace(c.Engines.Trino.Host) == "" {
		return fmt.Errorf("config: engines.trino.host is required")
	}
	if strings.TrimSpace(c.Storage.Endpoint) == "" {
		return fmt.Errorf("config: storage.endpoint is required")
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("config: storage.bucket is required")
	}
	for name, port := range map[string]int{
		"engines.postgres.port":   c.Engines.Postgres.Port,
		"engines.clickhouse.port": c.Engines.ClickHouse.Port,
		"engines.trino.port":      c.Engines.Trino.Port,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("config: %s must be in range 1-65535, got %d", name, port)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "http://localhost:8000")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.query_timeout", "30s")
	v.SetDefault("engines.postgres.host", "postgres_app")
	v.SetDefault("engines.postgres.port", 5432)
	v.SetDefault("engines.postgres.user", "app_user")
	v.SetDefault("engines.postgres.password", "app_password")
	v.SetDefault("engines.postgres.database", "app_db")
	v.SetDefault("engines.postgres.sslmode", "disable")
	v.SetDefault("engines.clickhouse.host", "clickhouse")
	v.SetDefault("engines.clickhouse.port", 9000)
	v.SetDefault("engines.clickhouse.user", "default")
	v.SetDefault("engines.clickhouse.password", "")
	v.SetDefault("engines.clickhouse.database", "default")
	v.SetDefault("engines.trino.host", "trino")
	v.SetDefault("engines.trino.port", 8080)
	v.SetDefault("engines.trino.catalog", "iceberg")
	v.SetDefault("engines.trino.schema", "public")
	v.SetDefault("engines.trino.user", "admin")
	v.SetDefault("engines.duckdb.path", ":memory:")
	v.SetDefault("storage.endpoint", "minio:9000")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.bucket", "lake-data")
	v.SetDefault("storage.access_key", "admin")
	v.SetDefault("storage.secret_key", "password")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.audit_path", "")
}
