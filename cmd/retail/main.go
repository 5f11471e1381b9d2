// Command retail is the retail analytics assistant: an interactive chat, a
// KPI dashboard, an HTTP API and an MCP server over the same supervisor.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
