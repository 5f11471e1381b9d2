package router

import (
	"fmt"
	"strings"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Guardrail is a deterministic rule that may override the model's choice.
// Apply returns the label to use and whether the rule matched. A matching
// rule ends evaluation of the policy.
type Guardrail interface {
	Name() string
	Apply(sig Signals, proposed turn.Label) (turn.Label, bool)
}

// Policy evaluates guardrails in order; the first match wins.
type Policy []Guardrail

// Apply runs the policy and returns the final label plus the name of the
// guardrail that matched, or "" when the model's label stands.
func (p Policy) Apply(sig Signals, proposed turn.Label) (turn.Label, string) {
	for _, g := range p {
		if label, ok := g.Apply(sig, proposed); ok {
			return label, g.Name()
		}
	}
	return proposed, ""
}

// Names lists the guardrails in evaluation order.
func (p Policy) Names() []string {
	names := make([]string, len(p))
	for i, g := range p {
		names[i] = g.Name()
	}
	return names
}

// RetrievalFailure ends the turn once retrieval errored or came back empty.
type RetrievalFailure struct{}

func (RetrievalFailure) Name() string { return "retrieval_failure" }

func (RetrievalFailure) Apply(sig Signals, _ turn.Label) (turn.Label, bool) {
	if sig.RetrievalFailedOrEmpty {
		return turn.Summarize, true
	}
	return "", false
}

// AnalysisChart sends analysis requests with fresh rows and no chart to visualize.
type AnalysisChart struct{}

func (AnalysisChart) Name() string { return "analysis_chart" }

func (AnalysisChart) Apply(sig Signals, _ turn.Label) (turn.Label, bool) {
	if sig.IsAnalysisRequest && sig.RetrievalSucceeded && !sig.ChartProduced {
		return turn.Visualize, true
	}
	return "", false
}

// RedundantSearch stops a second web search in the same turn.
type RedundantSearch struct{}

func (RedundantSearch) Name() string { return "redundant_search" }

func (RedundantSearch) Apply(sig Signals, proposed turn.Label) (turn.Label, bool) {
	if sig.SearchDone && proposed == turn.SearchWeb {
		return turn.Summarize, true
	}
	return "", false
}

// DispatchSettled stops further dispatch once it succeeded or ran out of attempts.
type DispatchSettled struct {
	MaxAttempts int
}

func (DispatchSettled) Name() string { return "dispatch_settled" }

func (g DispatchSettled) Apply(sig Signals, proposed turn.Label) (turn.Label, bool) {
	if proposed != turn.DispatchNotification {
		return "", false
	}
	exhausted := g.MaxAttempts > 0 && sig.DispatchAttempts >= g.MaxAttempts
	if sig.DispatchSucceeded || exhausted {
		return turn.Summarize, true
	}
	return "", false
}

// DefaultMaxDispatchAttempts bounds send attempts per turn.
const DefaultMaxDispatchAttempts = 3

// DefaultPolicy is retrieval failure, then analysis chart, then redundant
// search, then dispatch settled.
func DefaultPolicy() Policy {
	return Policy{
		RetrievalFailure{},
		AnalysisChart{},
		RedundantSearch{},
		DispatchSettled{MaxAttempts: DefaultMaxDispatchAttempts},
	}
}

// PolicyFromNames builds a policy from guardrail names in the given order.
// An empty list yields an empty policy that defers entirely to the model.
func PolicyFromNames(names []string, maxDispatchAttempts int) (Policy, error) {
	if maxDispatchAttempts <= 0 {
		maxDispatchAttempts = DefaultMaxDispatchAttempts
	}
	policy := make(Policy, 0, len(names))
	seen := make(map[string]bool)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if seen[name] {
			return nil, fmt.Errorf("guardrail %q listed twice", name)
		}
		seen[name] = true
		switch name {
		case "retrieval_failure":
			policy = append(policy, RetrievalFailure{})
		case "analysis_chart":
			policy = append(policy, AnalysisChart{})
		case "redundant_search":
			policy = append(policy, RedundantSearch{})
		case "dispatch_settled":
			policy = append(policy, DispatchSettled{MaxAttempts: maxDispatchAttempts})
		default:
			return nil, fmt.Errorf("unknown guardrail %q", raw)
		}
	}
	return policy, nil
}
