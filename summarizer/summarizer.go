// Package summarizer writes the assistant's final reply for a turn.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/prompt"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Fixed texts used when building the reply.
const (
	NoPrimaryData    = "No primary data available for this query."
	NotAvailable     = "Not available."
	ChartAvailable   = "An interactive chart providing a visual representation is available below."
	successTemplate  = "✅ **Success!** %s"
	chartStatusNote  = "Chart generation attempt status: %s"
	csvSection       = "**Primary Data Source (Structured CSV):**\n```csv\n%s\n```"
	historySection   = "**Previous Analysis Report (from chat history):**\n---\n%s\n---"
	retrievalSection = "**Data Retrieval Status:**\n%s"
)

// DegradedNotice leads every reply written after the iteration cap forced the
// turn to end early.
const DegradedNotice = "⚠️ I was unable to complete this request within the allowed number of steps, so the answer below may be incomplete."

// TokenCounter measures prompt text.
type TokenCounter interface {
	CountTokens(text string) int
}

// Config holds summarizer settings.
type Config struct {
	// MinHistoryLength is the length a prior assistant message must exceed
	// to be reused as context.
	MinHistoryLength int
	// ContextTokens caps the CSV placed in the prompt. Zero disables the cap.
	ContextTokens   int
	CurrencyName    string
	CurrencySymbol  string
	CurrencyExample string
}

// DefaultConfig returns the summarizer defaults.
func DefaultConfig() Config {
	return Config{
		MinHistoryLength: 50,
		ContextTokens:    6000,
		CurrencyName:     "Indian Rupees",
		CurrencySymbol:   "₹",
		CurrencyExample:  "₹1,50,000",
	}
}

// Summarizer turns the turn state into the user-visible reply.
type Summarizer struct {
	completer llm.Completer
	prompts   *prompt.Manager
	counter   TokenCounter
	cfg       Config
	logger    *slog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithTokenCounter enables the CSV token budget.
func WithTokenCounter(c TokenCounter) Option {
	return func(s *Summarizer) { s.counter = c }
}

// WithPrompts sets the template manager; it must contain prompt.Summarizer.
func WithPrompts(m *prompt.Manager) Option {
	return func(s *Summarizer) {
		if m != nil {
			s.prompts = m
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a summarizer.
func New(completer llm.Completer, cfg Config, opts ...Option) *Summarizer {
	def := DefaultConfig()
	if cfg.MinHistoryLength <= 0 {
		cfg.MinHistoryLength = def.MinHistoryLength
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencyName, cfg.CurrencySymbol, cfg.CurrencyExample = def.CurrencyName, def.CurrencySymbol, def.CurrencyExample
	}
	s := &Summarizer{
		completer: completer,
		prompts:   prompt.Default(),
		cfg:       cfg,
		logger:    logging.WithComponent("summarizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Context is what the reply is written from.
type Context struct {
	Primary  string
	External string
	Chart    string
	// Flagged is set when retrieval failed or found nothing.
	Flagged bool
}

// Summarize returns the reply. A successful dispatch is confirmed without
// calling the completion service. A degraded turn always carries
// DegradedNotice.
func (s *Summarizer) Summarize(ctx context.Context, st *turn.State) (string, error) {
	if st.Dispatch.Succeeded() {
		return withNotice(st, fmt.Sprintf(successTemplate, st.Dispatch.Status)), nil
	}

	start := time.Now()
	c := s.BuildContext(st)
	p, err := s.prompts.Render(prompt.Summarizer, map[string]any{
		"Query":           st.LatestHumanMessage(),
		"PrimaryContext":  c.Primary,
		"ExternalContext": c.External,
		"ChartNote":       c.Chart,
		"Flagged":         c.Flagged,
		"Degraded":        st.Degraded,
		"CurrencyName":    s.cfg.CurrencyName,
		"CurrencySymbol":  s.cfg.CurrencySymbol,
		"CurrencyExample": s.cfg.CurrencyExample,
	})
	if err != nil {
		return "", err
	}

	out, err := s.completer.Complete(ctx, p)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	reply := llm.StripCodeFences(out)
	s.logger.Debug("summary written",
		"session_id", st.SessionID,
		"flagged", c.Flagged,
		"degraded", st.Degraded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return withNotice(st, reply), nil
}

func withNotice(st *turn.State, reply string) string {
	if !st.Degraded {
		return reply
	}
	return DegradedNotice + "\n\n" + reply
}

// BuildContext picks the primary context: rows from this turn, else the last
// substantial assistant reply, else a no-data marker. A failed or empty
// retrieval replaces it with the retrieval note.
func (s *Summarizer) BuildContext(st *turn.State) Context {
	c := Context{Primary: NoPrimaryData, External: NotAvailable, Chart: NotAvailable}

	if st.Retrieval.Succeeded() {
		c.Primary = fmt.Sprintf(csvSection, s.fitCSV(st.Retrieval.Table))
	} else if prior, ok := st.PriorAssistantMessage(s.cfg.MinHistoryLength); ok {
		c.Primary = fmt.Sprintf(historySection, prior)
	}
	if st.Retrieval.FailedOrEmpty() {
		c.Primary = fmt.Sprintf(retrievalSection, st.Retrieval.Note)
		c.Flagged = true
	}

	if st.Search != nil && strings.TrimSpace(st.Search.Text) != "" {
		c.External = st.Search.Text
	}

	switch {
	case st.Chart.Available():
		c.Chart = ChartAvailable
	case st.Chart != nil && st.Chart.Err != "":
		c.Chart = fmt.Sprintf(chartStatusNote, st.Chart.Err)
	case st.Chart != nil:
		c.Chart = fmt.Sprintf(chartStatusNote, st.Chart.JSON)
	}
	return c
}

// fitCSV keeps the header and as many leading rows as fit the token budget.
func (s *Summarizer) fitCSV(t *turn.Table) string {
	full := strings.TrimRight(t.CSV(), "\n")
	if s.counter == nil || s.cfg.ContextTokens <= 0 || s.counter.CountTokens(full) <= s.cfg.ContextTokens {
		return full
	}

	lo, hi := 0, t.Len()
	for lo < hi {
		mid := (lo + hi + 1) / 2
		part := strings.TrimRight(turn.NewTable(t.Columns, t.Rows[:mid]).CSV(), "\n")
		if s.counter.CountTokens(part) <= s.cfg.ContextTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		lo = 1
	}
	kept := strings.TrimRight(turn.NewTable(t.Columns, t.Rows[:lo]).CSV(), "\n")
	s.logger.Debug("csv context truncated", "rows", t.Len(), "kept", lo)
	return fmt.Sprintf("%s\n... (%d more rows not shown)", kept, t.Len()-lo)
}
