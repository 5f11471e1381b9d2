package turn

import (
	"strings"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
)

// State is the record threaded through one user turn. It is owned by a
// single supervisor run and must not be shared across goroutines.
type State struct {
	SessionID string
	History   []*message.Message

	Retrieval *Retrieval
	Search    *Search
	Chart     *Chart
	Dispatch  *Dispatch

	// Steps lists the agent labels executed so far, in order.
	Steps []Label
	// Degraded is set when the turn was forced to finish early.
	Degraded bool
}

// New starts a turn: prior history carries forward and the human input is appended.
func New(sessionID string, history []*message.Message, input string) *State {
	h := make([]*message.Message, 0, len(history)+2)
	h = append(h, history...)
	h = append(h, message.Human(input))
	return &State{SessionID: sessionID, History: h}
}

// LatestHumanMessage returns the content of the most recent human message.
func (s *State) LatestHumanMessage() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == message.RoleUser {
			return s.History[i].Content
		}
	}
	return ""
}

// PriorAssistantMessage returns the most recent assistant message longer than
// minLen that is not a structured payload.
func (s *State) PriorAssistantMessage(minLen int) (string, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		m := s.History[i]
		if m.Role != message.RoleAssistant {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if len(content) <= minLen || message.IsStructuredPayload(content) {
			continue
		}
		return m.Content, true
	}
	return "", false
}

// NotificationMaterial picks what a notification should carry: rows retrieved
// this turn, else the last substantial assistant message.
func (s *State) NotificationMaterial(minLen int) (Material, bool) {
	if s.Retrieval.Succeeded() {
		if csv := s.Retrieval.Table.CSV(); strings.TrimSpace(csv) != "" {
			return Material{Kind: MaterialData, Text: csv}, true
		}
	}
	if prior, ok := s.PriorAssistantMessage(minLen); ok {
		return Material{Kind: MaterialReport, Text: prior}, true
	}
	return Material{}, false
}

// IsFirstStep reports whether no agent has produced output this turn.
func (s *State) IsFirstStep() bool {
	return s.Retrieval == nil && s.Search == nil && s.Chart == nil && s.Dispatch == nil
}

// HasRun reports whether the agent bound to label ran this turn.
func (s *State) HasRun(label Label) bool {
	for _, l := range s.Steps {
		if l == label {
			return true
		}
	}
	return false
}

// SetRetrieval stores the retrieval outcome, replacing any earlier one.
func (s *State) SetRetrieval(r *Retrieval) {
	s.Retrieval = r
	s.Steps = append(s.Steps, RetrieveData)
}

// SetSearch stores the search outcome.
func (s *State) SetSearch(r *Search) {
	s.Search = r
	s.Steps = append(s.Steps, SearchWeb)
}

// SetChart stores the chart outcome.
func (s *State) SetChart(c *Chart) {
	s.Chart = c
	s.Steps = append(s.Steps, Visualize)
}

// SetDispatch stores the dispatch outcome. Attempt counts accumulate across
// invocations within the turn.
func (s *State) SetDispatch(d *Dispatch) {
	if d != nil && s.Dispatch != nil {
		d.Attempts += s.Dispatch.Attempts
	}
	s.Dispatch = d
	s.Steps = append(s.Steps, DispatchNotification)
}

// DispatchAttempts returns the number of send attempts made this turn.
func (s *State) DispatchAttempts() int {
	if s.Dispatch == nil {
		return 0
	}
	return s.Dispatch.Attempts
}

// Reply returns the final assistant message, if the turn has finished.
func (s *State) Reply() *message.Message {
	if n := len(s.History); n > 0 && s.History[n-1].Role == message.RoleAssistant {
		return s.History[n-1]
	}
	return nil
}
