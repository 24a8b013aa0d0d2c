// Command fraudlens is the CLI client and all-in-one entry point for the
// fraud-analysis platform.
package main

import (
	"os"

	"github.com/fraudlens/fraudlens/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
