// Package main is the entrypoint for the switchyard CLI.
// The CLI is a client of the gateway: query execution, engine inspection,
// lake table listing, and system diagnostics.
package main

import (
	"os"

	"github.com/switchyard-labs/switchyard/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.New().Execute())
}
