package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/switchyard-labs/switchyard/internal/classifier"
	"github.com/switchyard-labs/switchyard/internal/errors"
)

func (c *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Long: `Run system diagnostics.

Checks:
  - configuration and endpoint
  - gateway liveness
  - engine readiness
  - classifier sanity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor()
		},
	}
}

func (c *CLI) runDoctor() error {
	c.println("Switchyard System Diagnostics")
	c.println("=============================")
	c.println("")

	checks := []DiagnosticCheck{
		c.checkConfig(),
		c.checkGateway(),
		c.checkEngines(),
		c.checkClassifier(),
	}

	allPassed := true
	for _, check := range checks {
		if !check.Passed {
			allPassed = false
		}
		c.printCheck(check)
	}

	c.println("")

	if c.jsonOutput {
		if err := c.outputJSON(map[string]interface{}{
			"checks":     checks,
			"all_passed": allPassed,
		}); err != nil {
			return err
		}
	} else if allPassed {
		c.println("✓ All checks passed")
	} else {
		c.println("✗ Some checks failed - see above for details")
	}

	if !allPassed {
		return errors.NewValidation("one or more diagnostic checks failed")
	}
	return nil
}

// DiagnosticCheck represents a single diagnostic check result.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	status := "✗"
	if check.Passed {
		status = "✓"
	}
	c.printf("%s %s: %s\n", status, check.Name, check.Message)
	if check.Details != "" && !check.Passed {
		c.printf("  → %s\n", check.Details)
	}
}

func (c *CLI) checkConfig() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Configuration"}

	if c.cfg == nil {
		check.Message = "No configuration loaded"
		check.Details = "Create ~/.switchyard/config.yaml or use --config flag"
		return check
	}

	if c.cfg.Endpoint == "" {
		check.Message = "No endpoint configured"
		check.Details = "Set endpoint in config or use --endpoint flag"
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Endpoint: %s", c.cfg.Endpoint)
	return check
}

func (c *CLI) checkGateway() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Gateway Liveness"}

	if c.cfg == nil || c.cfg.Endpoint == "" {
		check.Message = "No endpoint configured"
		return check
	}

	client := c.newGatewayClient()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		check.Message = "Cannot reach gateway"
		check.Details = fmt.Sprintf("Error: %v", err)
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("%s with %d engines: %s",
		health.Status, len(health.Engines), strings.Join(health.Engines, ", "))
	return check
}

func (c *CLI) checkEngines() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Engine Readiness"}

	if c.cfg == nil || c.cfg.Endpoint == "" {
		check.Message = "No endpoint configured"
		return check
	}

	client := c.newGatewayClient()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ready, err := client.Readiness(ctx)
	if err != nil {
		check.Message = "Readiness probe failed"
		check.Details = fmt.Sprintf("Error: %v", err)
		return check
	}

	if !ready.Ready {
		var failing []string
		for name, state := range ready.Engines {
			if state != "ok" {
				failing = append(failing, fmt.Sprintf("%s (%s)", name, state))
			}
		}
		sort.Strings(failing)
		check.Message = "One or more engines are not ready"
		check.Details = strings.Join(failing, "; ")
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("All %d engines ready", len(ready.Engines))
	return check
}

// checkClassifier runs a few representative statements through the local
// classifier and confirms each lands on its expected label. A failure here
// means the build is broken, not the deployment.
func (c *CLI) checkClassifier() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Classifier"}

	cases := []struct {
		sql  string
		want classifier.Label
	}{
		{"INSERT INTO t (id) VALUES (1)", classifier.LabelTransactional},
		{"SELECT count(*) FROM t", classifier.LabelColumnar},
		{"SELECT * FROM a JOIN b ON a.id = b.id", classifier.LabelFederation},
		{"SELECT * FROM t", classifier.LabelAdHoc},
	}

	cl := classifier.New()
	for _, tc := range cases {
		if got := cl.Classify(tc.sql); got != tc.want {
			check.Message = "Classifier produced an unexpected label"
			check.Details = fmt.Sprintf("%q classified as %s, expected %s", tc.sql, got, tc.want)
			return check
		}
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Rules verified against %d statements", len(cases))
	return check
}
