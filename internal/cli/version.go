package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  `Display CLI build information and gateway reachability.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVersion()
		},
	}
}

func (c *CLI) runVersion() error {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	// The health endpoint carries no version, so the gateway section only
	// reports reachability.
	gatewayStatus := "not configured"
	if c.cfg != nil && c.cfg.Endpoint != "" {
		client := c.newGatewayClient()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if health, err := client.Health(ctx); err == nil {
			gatewayStatus = health.Status
		} else {
			gatewayStatus = "unavailable"
		}
	}

	if c.jsonOutput {
		output := struct {
			VersionInfo
			Gateway struct {
				Status string `json:"status"`
			} `json:"gateway"`
		}{
			VersionInfo: info,
		}
		output.Gateway.Status = gatewayStatus
		return c.outputJSON(output)
	}

	c.println("Switchyard CLI")
	c.printf("  Version:    %s\n", info.Version)
	c.printf("  Git Commit: %s\n", info.GitCommit)
	c.printf("  Build Date: %s\n", info.BuildDate)
	c.printf("  Go Version: %s\n", info.GoVersion)
	c.printf("  OS/Arch:    %s/%s\n", info.OS, info.Arch)

	c.println("")
	c.println("Gateway:")
	c.printf("  Status: %s\n", gatewayStatus)

	return nil
}

// VersionInfo represents version information for JSON output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

// GetVersionString returns a formatted version string.
func GetVersionString() string {
	return fmt.Sprintf("switchyard version %s (commit: %s, built: %s)",
		Version, GitCommit, BuildDate)
}
