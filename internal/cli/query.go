package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/switchyard-labs/switchyard/internal/errors"
)

func (c *CLI) newQueryCmd() *cobra.Command {
	var forceEngine string

	cmd := &cobra.Command{
		Use:   "query <SQL>",
		Short: "Execute a SQL statement through the gateway",
		Long: `Execute a SQL statement through the switchyard gateway.

The statement is classified by shape and routed to the matching engine:
writes and point lookups go to postgres, aggregations to clickhouse,
joins to trino, and everything else to duckdb. Use --engine to bypass
classification and name the engine directly.

Examples:
  switchyard query "SELECT count(*) FROM users"
  switchyard query --engine duckdb "SELECT * FROM orders LIMIT 10"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(args[0], forceEngine)
		},
	}

	cmd.Flags().StringVar(&forceEngine, "engine", "", "route to this engine instead of classifying")

	return cmd
}

func (c *CLI) runQuery(sqlText, forceEngine string) error {
	client := c.newGatewayClient()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := client.Query(ctx, sqlText, forceEngine)
	if err != nil {
		c.errorf("Query failed: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(resp)
	}

	// The gateway answers 200 for every routed statement; the body says
	// how it went.
	if resp.Error != "" {
		c.errorf("✗ %s\n", resp.Error)
		return &errors.RouterError{Code: errors.CodeBackend, Message: resp.Error}
	}

	if resp.Status != "" {
		c.printf("✓ %s on %s (%.3fs)\n", resp.Status, resp.Engine, resp.Duration)
		return nil
	}

	c.printRows(resp.Columns, resp.Data)
	c.printf("\n%d row(s) from %s in %.3fs\n", len(resp.Data), resp.Engine, resp.Duration)
	return nil
}

// printRows renders a result set as an aligned table, columns in the order
// the engine reported them.
func (c *CLI) printRows(columns []string, rows []map[string]interface{}) {
	if c.quiet {
		return
	}
	if len(columns) == 0 {
		c.println("(no columns)")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(columns, "\t")))
	for _, row := range rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = formatValue(row[col])
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	w.Flush()
}

func formatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
