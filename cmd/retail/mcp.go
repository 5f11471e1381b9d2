package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		useConsoleLogging()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(a)

		return mcpserver.New(a.Sessions, a.Dashboard).ServeStdio(ctx)
	},
}
