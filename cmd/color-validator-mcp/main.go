// Command color-validator-mcp checks images against brand color profiles,
// either as an MCP server over stdio ("serve") or from the command line.
package main

import (
	"os"

	"github.com/ironsheep/color-validator-mcp/internal/cli"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(cli.Execute(cli.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}))
}
