package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/events"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
)

const shutdownTimeout = 10 * time.Second

var (
	chatSessionID string
	chartDir      string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive analysis session",
	Long: `Start an interactive analysis session.

Type a question and press enter. Commands:
  /clear   forget the conversation so far
  quit     leave (also: exit, bye)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume a stored conversation")
	chatCmd.Flags().StringVar(&chartDir, "chart-dir", "", "directory for generated Plotly chart JSON")
}

func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit", "bye":
		return true
	}
	return false
}

func runChat(cmd *cobra.Command, _ []string) error {
	useConsoleLogging()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	conv, err := a.Sessions.GetOrCreate(ctx, chatSessionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	md := newMarkdownRenderer()
	go showProgress(ctx, a.Events, conv.ID())

	fmt.Fprintln(out, titleStyle.Render("Retail Analytics Assistant"))
	fmt.Fprintln(out, session.Greeting)
	fmt.Fprintln(out, progressStyle.Render("session "+conv.ID()))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	charts := 0
	for {
		fmt.Fprint(out, "\n"+promptStyle.Render("you › "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case isQuit(input):
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case input == "/clear":
			if err := conv.Clear(ctx); err != nil {
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
				continue
			}
			fmt.Fprintln(out, session.ClearedNotice)
			continue
		}

		res, err := conv.Ask(ctx, input)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if errors.Is(err, apperrors.ErrTurnInProgress) {
			fmt.Fprintln(out, errorStyle.Render("Still working on the previous question."))
			continue
		}
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("Sorry, I could not complete that request: "+err.Error()))
			continue
		}

		fmt.Fprint(out, md.Render(res.Reply))
		if res.Chart != "" {
			charts++
			path, err := saveChart(chartDir, conv.ID(), charts, res.Chart)
			switch {
			case err != nil:
				fmt.Fprintln(out, errorStyle.Render("could not save chart: "+err.Error()))
			case path == "":
				fmt.Fprintln(out, progressStyle.Render("A chart was generated. Use --chart-dir to save it."))
			default:
				fmt.Fprintln(out, progressStyle.Render("chart saved to "+path))
			}
		}
	}
	return scanner.Err()
}

// showProgress prints routing progress for one conversation on stderr.
func showProgress(ctx context.Context, bus *events.Bus, sessionID string) {
	ch, err := bus.Subscribe(ctx)
	if err != nil {
		return
	}
	for ev := range events.SessionFilter(ch, sessionID) {
		if line := progressLine(ev); line != "" {
			fmt.Fprintln(os.Stderr, progressStyle.Render(line))
		}
	}
}

func progressLine(ev events.Event) string {
	switch ev.Kind {
	case events.RouteDecided:
		if ev.Guardrail != "" && ev.Proposed != ev.Label {
			return fmt.Sprintf("  → %s (instead of %s: %s)", ev.Label, ev.Proposed, ev.Guardrail)
		}
		return "  → " + ev.Label
	case events.AgentFinished:
		if ev.Detail != "" {
			return fmt.Sprintf("  ✓ %s: %s", ev.Label, ev.Detail)
		}
		return "  ✓ " + ev.Label
	}
	return ""
}

// saveChart writes a figure to dir. An empty dir means charts are not kept.
func saveChart(dir, sessionID string, n int, figure string) (string, error) {
	if dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	path := filepath.Join(dir, fmt.Sprintf("chart-%s-%d.json", short, n))
	if err := os.WriteFile(path, []byte(figure), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
