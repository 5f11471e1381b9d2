package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestCompletionLogger(t *testing.T) {
	t.Run("logs successful completion", func(t *testing.T) {
		var buf bytes.Buffer
		mw := NewCompletionLogger(newBufferLogger(&buf), "router")

		ctx := &middleware.Context{Prompt: "pick a label"}
		err := mw.Execute(ctx, func(c *middleware.Context) error {
			c.Response = "sql_agent"
			return nil
		})

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "completion finished") || !strings.Contains(out, "caller=router") {
			t.Errorf("missing completion log line: %s", out)
		}
		if !strings.Contains(out, "sql_agent") {
			t.Errorf("debug response not logged: %s", out)
		}
	})

	t.Run("logs and returns errors", func(t *testing.T) {
		var buf bytes.Buffer
		mw := NewCompletionLogger(newBufferLogger(&buf), "summarizer")

		err := mw.Execute(&middleware.Context{}, func(c *middleware.Context) error {
			return errors.New("boom")
		})

		if err == nil || err.Error() != "boom" {
			t.Errorf("expected boom, got %v", err)
		}
		if !strings.Contains(buf.String(), "completion failed") {
			t.Errorf("failure not logged: %s", buf.String())
		}
	})

	t.Run("nil logger falls back to shared logger", func(t *testing.T) {
		mw := NewCompletionLogger(nil, "x")
		if mw.logger == nil {
			t.Error("expected fallback logger")
		}
	})
}
