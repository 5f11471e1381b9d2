// Package chart is the visualization agent. The model only describes the
// chart; rendering is done by the chart package.
package chart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/chart"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/prompt"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// ErrNoData is the chart error recorded when there is nothing to plot.
const ErrNoData = "Error: No valid data available to visualize."

// Agent produces chart figures.
type Agent struct {
	completer  llm.Completer
	prompts    *prompt.Manager
	promptRows int
	logger     *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithPromptRows caps how many rows are shown to the model.
func WithPromptRows(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.promptRows = n
		}
	}
}

// WithPrompts sets the template manager; it must contain prompt.Chart.
func WithPrompts(m *prompt.Manager) Option {
	return func(a *Agent) {
		if m != nil {
			a.prompts = m
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates the visualization agent.
func New(completer llm.Completer, opts ...Option) *Agent {
	a := &Agent{
		completer:  completer,
		prompts:    prompt.Default(),
		promptRows: 50,
		logger:     logging.WithComponent("agent.chart"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Visualize charts table for question. Failures come back in Chart.Err.
func (a *Agent) Visualize(ctx context.Context, question string, table *turn.Table) *turn.Chart {
	if table.Empty() {
		return &turn.Chart{Err: ErrNoData}
	}

	sample := table
	if table.Len() > a.promptRows {
		sample = turn.NewTable(table.Columns, table.Rows[:a.promptRows])
	}
	p, err := a.prompts.Render(prompt.Chart, map[string]any{
		"Schema":   chart.Schema(),
		"Query":    question,
		"Columns":  table.Columns,
		"RowCount": table.Len(),
		"CSV":      sample.CSV(),
	})
	if err != nil {
		return &turn.Chart{Err: fmt.Sprintf("Error generating chart: %v", err)}
	}

	raw, err := a.completer.Complete(ctx, p)
	if err != nil {
		a.logger.Warn("chart spec request failed", "error", err)
		return &turn.Chart{Err: fmt.Sprintf("Error generating chart: %v", err)}
	}

	spec, err := chart.Validate(raw)
	if err != nil {
		a.logger.Warn("chart spec rejected", "error", err)
		return &turn.Chart{Err: fmt.Sprintf("Error generating chart: %v", err)}
	}
	for _, y := range spec.Y {
		if chart.LooksMonetary(y) {
			spec.Currency = true
		}
	}

	figure, err := chart.Render(spec, table)
	if err != nil {
		a.logger.Warn("chart render failed", "error", err)
		return &turn.Chart{Err: fmt.Sprintf("Error generating chart: %v", err)}
	}
	a.logger.Info("chart rendered", "type", spec.Type, "x", spec.X, "y", spec.Y)
	return &turn.Chart{JSON: figure}
}
