package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/app"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/config"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "retail",
	Short: "Retail analytics assistant",
	Long: `Ask questions about GadgetHub sales in plain language. A supervisor routes
each question between a SQL analyst, a web researcher, a chart designer and an
email dispatcher, then summarizes the findings.

Example:
  retail chat
  retail ask "What were total sales by category in 2024?"
  retail dashboard --year 2024 --category Laptops
  retail serve
  retail mcp`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("retail version %s\n", version)
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./retail.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.AddCommand(versionCmd, chatCmd, askCmd, dashboardCmd, serveCmd, mcpCmd)
}

// useConsoleLogging keeps logs on stderr so stdout carries only answers.
func useConsoleLogging() {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logging.SetLogger(logging.New(logging.Options{Format: "text", Level: level, Output: os.Stderr}))
}

func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

func closeApp(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		logging.Logger().Warn("shutdown", "error", err)
	}
}

func logError(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
