// Package search is the web-search agent.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/prompt"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/websearch"
)

// Agent looks up market context for a sales question.
type Agent struct {
	client     websearch.Client
	prompts    *prompt.Manager
	maxResults int
	logger     *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxResults caps results per search.
func WithMaxResults(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxResults = n
		}
	}
}

// WithPrompts sets the template manager; it must contain prompt.SearchQuery.
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

// New creates a search agent.
func New(client websearch.Client, opts ...Option) *Agent {
	a := &Agent{
		client:     client,
		prompts:    prompt.Default(),
		maxResults: websearch.DefaultMaxResults,
		logger:     logging.WithComponent("agent.search"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Search returns formatted results. Tool failures are embedded in the text.
func (a *Agent) Search(ctx context.Context, question string) *turn.Search {
	query, err := a.prompts.Render(prompt.SearchQuery, map[string]any{"Query": question})
	if err != nil {
		return &turn.Search{Text: fmt.Sprintf("Error: %v", err), Failed: true}
	}

	results, err := a.client.Search(ctx, query, a.maxResults)
	if err != nil {
		a.logger.Warn("web search failed", "error", err)
		return &turn.Search{Text: fmt.Sprintf("Error: %v", err), Failed: true}
	}
	a.logger.Info("web search finished", "results", len(results))
	return &turn.Search{Text: websearch.Format(results)}
}
