// Package router chooses the next step of a turn: the completion service
// proposes a label and a guardrail policy may override it.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/prompt"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Decision records how a label was chosen.
type Decision struct {
	Label      turn.Label
	Proposed   turn.Label
	Raw        string
	Recognized bool
	Guardrail  string
	Signals    Signals
}

// Overridden reports whether a guardrail changed the model's label.
func (d Decision) Overridden() bool {
	return d.Guardrail != "" && d.Label != d.Proposed
}

// Router asks the completion service for the next step.
type Router struct {
	completer llm.Completer
	prompts   *prompt.Manager
	intents   Intents
	policy    Policy
	logger    *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithPolicy replaces the default guardrail policy.
func WithPolicy(p Policy) Option {
	return func(r *Router) {
		r.policy = p
	}
}

// WithIntents replaces the default intent keywords.
func WithIntents(i Intents) Option {
	return func(r *Router) {
		r.intents = i
	}
}

// WithPrompts sets the template manager; it must contain prompt.Router.
func WithPrompts(m *prompt.Manager) Option {
	return func(r *Router) {
		if m != nil {
			r.prompts = m
		}
	}
}

// WithLogger overrides the logger used by the router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a router backed by completer.
func New(completer llm.Completer, opts ...Option) *Router {
	r := &Router{
		completer: completer,
		intents:   DefaultIntents(),
		policy:    DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.prompts == nil {
		r.prompts = prompt.Default()
	}
	if r.logger == nil {
		r.logger = logging.WithComponent("router")
	}
	return r
}

// Policy returns the guardrail policy in effect.
func (r *Router) Policy() Policy {
	return r.policy
}

// Decide returns the next label for st. An unparseable answer becomes
// summarize; the only error is a failed call to the completion service.
func (r *Router) Decide(ctx context.Context, st *turn.State) (Decision, error) {
	sig := ComputeSignals(st, r.intents)

	steps := make([]string, len(sig.Steps))
	for i, s := range sig.Steps {
		steps[i] = AliasFor(s)
	}
	text, err := r.prompts.Render(prompt.Router, map[string]any{
		"Query":                 sig.Query,
		"Steps":                 steps,
		"Retrieved":             st.Retrieval != nil,
		"Searched":              sig.SearchDone,
		"Charted":               sig.ChartProduced,
		"DispatchStatus":        sig.DispatchStatus,
		"RetrievalFailed":       sig.RetrievalFailedOrEmpty,
		"NotificationRequested": sig.NotificationRequested,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("render routing prompt: %w", err)
	}

	raw, err := r.completer.Complete(ctx, text)
	if err != nil {
		return Decision{}, fmt.Errorf("routing judgment: %w", err)
	}

	proposed, recognized := ParseLabel(raw)
	label, guardrail := r.policy.Apply(sig, proposed)

	d := Decision{
		Label:      label,
		Proposed:   proposed,
		Raw:        raw,
		Recognized: recognized,
		Guardrail:  guardrail,
		Signals:    sig,
	}
	if !recognized {
		r.logger.Warn("unrecognized routing judgment, defaulting", "session_id", st.SessionID, "raw", raw, "label", label)
	}
	if d.Overridden() {
		r.logger.Info("guardrail override", "session_id", st.SessionID, "guardrail", guardrail, "proposed", proposed, "label", label)
	}
	r.logger.Debug("route decided", "session_id", st.SessionID, "label", label, "steps", len(sig.Steps))
	return d, nil
}
