package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askSessionID string
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useConsoleLogging()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(a)

		conv, err := a.Sessions.GetOrCreate(ctx, askSessionID)
		if err != nil {
			return err
		}
		res, err := conv.Ask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if askJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprint(out, newMarkdownRenderer().Render(res.Reply))
		if res.Chart != "" {
			path, err := saveChart(chartDir, conv.ID(), 1, res.Chart)
			if err != nil {
				return fmt.Errorf("save chart: %w", err)
			}
			if path != "" {
				fmt.Fprintln(out, progressStyle.Render("chart saved to "+path))
			}
		}
		fmt.Fprintln(os.Stderr, progressStyle.Render("session "+conv.ID()))
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askSessionID, "session", "", "continue a stored conversation")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full turn result as JSON")
	askCmd.Flags().StringVar(&chartDir, "chart-dir", "", "directory for generated Plotly chart JSON")
}
