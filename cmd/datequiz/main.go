// datequiz is the date quiz backend: an HTTP turn API with a display socket,
// an MCP tool server, and a local console player.
//
// Usage:
//
//	datequiz serve
//	datequiz mcp [--memory]
//	datequiz play [--session <id>]
//	datequiz content validate [path]
//	datequiz healthcheck [--addr host:port]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
