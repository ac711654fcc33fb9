package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/switchyard-labs/switchyard/internal/errors"
)

func (c *CLI) newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the lake bucket",
		Long: `List the logical tables stored in the lake bucket.

Each entry is the first path segment under the data/ prefix, so
versioned table directories and loose parquet files both appear.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTables()
		},
	}
}

func (c *CLI) runTables() error {
	client := c.newGatewayClient()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tables, err := client.ListTables(ctx)
	if err != nil {
		c.errorf("Failed to list tables: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"tables": tables,
		})
	}

	if len(tables) == 0 {
		c.println("No tables in the lake")
		return nil
	}

	for _, t := range tables {
		c.println(t)
	}
	return nil
}

func (c *CLI) newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <table> <file.csv>",
		Short: "Load a CSV file into the lake as a table",
		Long: `Load a local CSV file into the lake bucket as a parquet table.

The gateway converts the file and writes it to a timestamped object
under data/<table>/, so repeated loads of the same table add files
rather than replace them. The path must be readable by the gateway
process, not just by this CLI.

Example:
  switchyard ingest users ./users.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runIngest(args[0], args[1])
		},
	}
}

func (c *CLI) runIngest(table, csvPath string) error {
	client := c.newGatewayClient()
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	resp, err := client.Ingest(ctx, table, csvPath)
	if err != nil {
		c.errorf("Ingest failed: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(resp)
	}

	if resp.Error != "" {
		c.errorf("✗ %s\n", resp.Error)
		return &errors.RouterError{Code: errors.CodeBackend, Message: resp.Error}
	}

	c.printf("✓ Table '%s' loaded\n", table)
	c.printf("  Path: %s\n", resp.Path)
	return nil
}
