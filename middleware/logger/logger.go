package logger

import (
	"log/slog"
	"time"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
)

// CompletionLogger logs every completion call with its size and latency.
// Prompt and response text are only emitted at debug level.
type CompletionLogger struct {
	logger *slog.Logger
	caller string
}

// NewCompletionLogger creates a logging middleware. caller names the component
// issuing completions (router, summarizer, sql agent, ...).
func NewCompletionLogger(logger *slog.Logger, caller string) *CompletionLogger {
	if logger == nil {
		logger = logging.WithComponent("completion")
	}
	return &CompletionLogger{logger: logger, caller: caller}
}

// Name returns the middleware name
func (m *CompletionLogger) Name() string {
	return "CompletionLogger"
}

// Execute logs the request and its outcome
func (m *CompletionLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := time.Now()
	m.logger.Debug("completion request", "caller", m.caller, "prompt", ctx.Prompt)

	err := next(ctx)

	attrs := []any{
		"caller", m.caller,
		"prompt_chars", len(ctx.Prompt),
		"response_chars", len(ctx.Response),
		"attempt", ctx.Attempt,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		m.logger.Warn("completion failed", append(attrs, "error", err)...)
		return err
	}
	m.logger.Info("completion finished", attrs...)
	m.logger.Debug("completion response", "caller", m.caller, "response", ctx.Response)
	return nil
}
