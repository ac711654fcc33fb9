package cli

import (
	"github.com/spf13/cobra"

	"github.com/switchyard-labs/switchyard/internal/classifier"
)

func (c *CLI) newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <SQL>",
		Short: "Show how a statement would be routed",
		Long: `Classify a SQL statement locally, without contacting the gateway.

Runs the same rule-based classifier the gateway uses and prints the
label, the engine it maps to, and the rule that fired. Useful for
checking routing decisions before running a statement.

Example:
  switchyard classify "SELECT region, count(*) FROM sales GROUP BY region"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runClassify(args[0])
		},
	}
}

func (c *CLI) runClassify(sqlText string) error {
	label, reason := classifier.New().Explain(sqlText)

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"sql":    sqlText,
			"label":  label.String(),
			"engine": label.EngineName(),
			"reason": reason,
		})
	}

	c.printf("Label:  %s\n", label)
	c.printf("Engine: %s\n", label.EngineName())
	c.printf("Reason: %s\n", reason)
	return nil
}
