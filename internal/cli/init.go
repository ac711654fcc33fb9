package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/switchyard-labs/switchyard/internal/errors"
)

func (c *CLI) newInitCmd() *cobra.Command {
	var (
		outputDir string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate an example configuration file",
		Long: `Generate an example configuration file for switchyard.

The file documents every setting with its default value. This command
does not modify any running system - it only creates a template.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(outputDir, force)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory for the configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config.yaml")

	return cmd
}

func (c *CLI) runInit(outputDir string, force bool) error {
	configPath := filepath.Join(outputDir, "config.yaml")

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			c.errorf("Error: %s already exists (use --force to overwrite)\n", configPath)
			return errors.NewValidation(fmt.Sprintf("%s already exists", configPath))
		}
	}

	exampleConfig := `# Switchyard Configuration
# Generated by 'switchyard init'
# Every value shown is the default; delete what you do not change.

# Gateway endpoint the CLI talks to.
endpoint: http://localhost:8000

server:
  addr: :8000
  read_timeout: 30s
  write_timeout: 30s
  # Per-call budget for one engine execution, retries excluded.
  query_timeout: 30s

engines:
  postgres:
    host: postgres_app
    port: 5432
    user: app_user
    password: app_password
    database: app_db
    sslmode: disable

  clickhouse:
    host: clickhouse
    port: 9000
    user: default
    password: ""
    database: default

  trino:
    host: trino
    port: 8080
    catalog: iceberg
    schema: public
    user: admin

  duckdb:
    # Use a file path for a durable catalog, :memory: for throwaway.
    path: ":memory:"

storage:
  endpoint: minio:9000
  region: ""
  bucket: lake-data
  access_key: admin
  secret_key: password
  use_ssl: false

logging:
  level: info
  format: json
  # Set to a sqlite file path to persist query history across restarts.
  audit_path: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		c.errorf("Error: %v\n", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	absPath, _ := filepath.Abs(configPath)

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status": "created",
			"path":   absPath,
		})
	}

	c.printf("✓ Configuration file created: %s\n", absPath)
	c.println("\nNext steps:")
	c.println("  1. Edit the file to match your environment")
	c.println("  2. Start the gateway: switchyard-gateway --config " + configPath)
	c.println("  3. Check the deployment: switchyard doctor")

	return nil
}
