// Package cli provides the command-line interface for switchyard.
// The CLI is a thin client of the gateway: it issues HTTP requests and
// displays real responses, with a couple of local diagnostics (classify,
// doctor) layered on top.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/switchyard-labs/switchyard/internal/config"
	"github.com/switchyard-labs/switchyard/internal/errors"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitEngine     = 2
	ExitInternal   = 3
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	// Global flags
	configPath string
	endpoint   string
	jsonOutput bool
	quiet      bool
	debug      bool
}

// New creates a new CLI instance.
func New() *CLI {
	cli := &CLI{}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

// Execute runs the CLI. Commands print their own errors; this only maps
// the failure category to an exit code.
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		switch errors.CodeOf(err) {
		case errors.CodeValidation:
			return ExitValidation
		case errors.CodeUnknownEngine, errors.CodeBackend:
			return ExitEngine
		default:
			return ExitInternal
		}
	}
	return ExitSuccess
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switchyard",
		Short: "Switchyard - SQL query router",
		Long: `Switchyard routes SQL statements across heterogeneous query engines.

It provides:
  • Rule-based classification of SQL into engine labels
  • Uniform execution across postgres, clickhouse, trino, and duckdb
  • Table rewriting toward object-storage parquet data
  • A single always-answering query endpoint with timing

This CLI is a client of the gateway plus local diagnostics.`,
		Version:       GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.switchyard/config.yaml)")
	cmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "gateway endpoint (overrides config)")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose debug logs")

	// Commands
	cmd.AddCommand(c.newQueryCmd())
	cmd.AddCommand(c.newClassifyCmd())
	cmd.AddCommand(c.newEnginesCmd())
	cmd.AddCommand(c.newTablesCmd())
	cmd.AddCommand(c.newIngestCmd())
	cmd.AddCommand(c.newDoctorCmd())
	cmd.AddCommand(c.newInitCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		c.errorf("Error: %v\n", err)
		return err
	}
	c.cfg = cfg

	// Override with flags
	if c.endpoint != "" {
		c.cfg.Endpoint = c.endpoint
	}

	return nil
}

// Helper functions for output

func (c *CLI) printf(format string, args ...interface{}) {
	if !c.quiet {
		fmt.Printf(format, args...)
	}
}

func (c *CLI) println(args ...interface{}) {
	if !c.quiet {
		fmt.Println(args...)
	}
}

func (c *CLI) errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

func (c *CLI) debugf(format string, args ...interface{}) {
	if c.debug {
		fmt.Printf("[DEBUG] "+format, args...)
	}
}

func (c *CLI) outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newGatewayClient creates a new gateway client with current config.
func (c *CLI) newGatewayClient() *GatewayClient {
	return NewGatewayClient(c.cfg.Endpoint)
}
