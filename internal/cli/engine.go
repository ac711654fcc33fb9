package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List registered engines and their state",
		Long: `List the engines registered with the gateway.

Shows each engine's name and the result of its last readiness probe.
The listing order is the gateway's registration order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEngines()
		},
	}
}

func (c *CLI) runEngines() error {
	client := c.newGatewayClient()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		c.errorf("Gateway unreachable: %v\n", err)
		return err
	}

	// Readiness is best-effort detail; the registered list alone is still
	// worth printing when the probe endpoint fails.
	states := map[string]string{}
	ready, err := client.Readiness(ctx)
	if err != nil {
		c.debugf("Readiness probe failed: %v\n", err)
	} else {
		states = ready.Engines
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"engines": health.Engines,
			"states":  states,
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE")
	for _, name := range health.Engines {
		state, ok := states[name]
		if !ok {
			state = "unknown"
		} else if state == "ok" {
			state = "✓ ready"
		} else {
			state = "✗ " + state
		}
		fmt.Fprintf(w, "%s\t%s\n", name, state)
	}
	w.Flush()

	return nil
}
