package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/mcpserver"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/server"
)

var (
	serveAddr string
	serveMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the conversation and dashboard API over HTTP.

Endpoints:
  POST   /api/sessions                  start a conversation
  POST   /api/sessions/{id}/messages    ask a question
  GET    /api/sessions/{id}/events      progress stream (SSE)
  GET    /api/dashboard                 KPIs (years, sub_regions, categories)
  GET    /healthz                       warehouse health
  *      /mcp                           MCP streamable HTTP (with --mcp)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(a)

		opts := []server.Option{
			server.WithEvents(a.Events),
			server.WithAllowedOrigins(a.Config.Server.AllowedOrigins...),
			server.WithTurnTimeout(a.Config.Server.TurnTimeout),
		}
		if p, ok := a.Warehouse.(interface{ Ping(context.Context) error }); ok {
			opts = append(opts, server.WithHealthCheck(p.Ping))
		}
		if serveMCP {
			opts = append(opts, server.WithMount("/mcp", mcpserver.New(a.Sessions, a.Dashboard).Handler()))
		}

		addr := a.Config.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return server.New(a.Sessions, a.Dashboard, opts...).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP at /mcp")
}
