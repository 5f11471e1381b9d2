// Package retrieval is the SQL agent: it turns a question into a read-only
// query and runs it against the warehouse.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/prompt"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/warehouse"
)

// Status notes written to the retrieval result.
const (
	NoteEmpty   = "Successfully executed SQL query. The query returned no results."
	NoteSuccess = "Successfully executed SQL query.\nData has been successfully retrieved and structured. Preview:\n"
	noteError   = "An error occurred while processing: %v"
)

// Querier is the warehouse surface the agent needs.
type Querier interface {
	TableInfo(ctx context.Context) (string, error)
	Run(ctx context.Context, statement string) (*turn.Table, error)
}

// Agent generates and executes SQL.
type Agent struct {
	completer   llm.Completer
	db          Querier
	prompts     *prompt.Manager
	previewRows int
	logger      *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithPrompts sets the template manager; it must contain prompt.SQL.
func WithPrompts(m *prompt.Manager) Option {
	return func(a *Agent) {
		if m != nil {
			a.prompts = m
		}
	}
}

// WithPreviewRows sets how many rows the status note previews.
func WithPreviewRows(n int) Option {
	return func(a *Agent) { a.previewRows = n }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates the SQL agent.
func New(completer llm.Completer, db Querier, opts ...Option) *Agent {
	a := &Agent{
		completer:   completer,
		db:          db,
		prompts:     prompt.Default(),
		previewRows: 5,
		logger:      logging.WithComponent("agent.retrieval"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Retrieve answers question with rows from the warehouse. Failures are
// reported through the result, never as an error.
func (a *Agent) Retrieve(ctx context.Context, question string) *turn.Retrieval {
	start := time.Now()

	statement, err := a.generate(ctx, question)
	if err != nil {
		a.logger.Warn("sql generation failed", "error", err)
		return turn.FailedRetrieval("", fmt.Sprintf(noteError, err))
	}

	table, err := a.db.Run(ctx, statement)
	if err != nil {
		a.logger.Warn("sql execution failed", "sql", statement, "error", err)
		return turn.FailedRetrieval(statement, fmt.Sprintf(noteError, err))
	}

	a.logger.Info("sql executed",
		"sql", statement,
		"rows", table.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if table.Empty() {
		return turn.NewRetrieval(statement, table, NoteEmpty)
	}
	return turn.NewRetrieval(statement, table, NoteSuccess+table.Preview(a.previewRows))
}

func (a *Agent) generate(ctx context.Context, question string) (string, error) {
	schema, err := a.db.TableInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("describe tables: %w", err)
	}
	p, err := a.prompts.Render(prompt.SQL, map[string]any{
		"Schema":   schema,
		"Question": question,
	})
	if err != nil {
		return "", err
	}
	raw, err := a.completer.Complete(ctx, p)
	if err != nil {
		return "", err
	}
	statement := warehouse.CleanSQL(raw)
	if statement == "" {
		return "", fmt.Errorf("model returned no SQL")
	}
	return statement, nil
}
