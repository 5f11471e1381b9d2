package router

import (
	"strings"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Intents holds the keyword lists used to classify the human message.
type Intents struct {
	Analysis     []string
	Notification []string
}

// DefaultIntents matches "analysis"/"report" and "email"/"send".
func DefaultIntents() Intents {
	return Intents{
		Analysis:     []string{"analysis", "report"},
		Notification: []string{"email", "send"},
	}
}

// IsAnalysis reports whether msg asks for an analysis or report.
func (i Intents) IsAnalysis(msg string) bool {
	return containsAny(msg, i.Analysis)
}

// IsNotification reports whether msg explicitly asks to send something.
func (i Intents) IsNotification(msg string) bool {
	return containsAny(msg, i.Notification)
}

func containsAny(msg string, keywords []string) bool {
	lower := strings.ToLower(msg)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Signals are the facts about a turn that routing depends on.
type Signals struct {
	Query                  string
	Steps                  []turn.Label
	IsFirstStep            bool
	IsAnalysisRequest      bool
	NotificationRequested  bool
	RetrievalFailedOrEmpty bool
	RetrievalSucceeded     bool
	SearchDone             bool
	ChartProduced          bool
	DispatchStatus         string
	DispatchSucceeded      bool
	DispatchAttempts       int
}

// ComputeSignals derives routing signals from the turn state.
func ComputeSignals(st *turn.State, intents Intents) Signals {
	query := st.LatestHumanMessage()
	sig := Signals{
		Query:                  query,
		Steps:                  append([]turn.Label(nil), st.Steps...),
		IsFirstStep:            st.IsFirstStep(),
		IsAnalysisRequest:      intents.IsAnalysis(query),
		NotificationRequested:  intents.IsNotification(query),
		RetrievalFailedOrEmpty: st.Retrieval.FailedOrEmpty(),
		RetrievalSucceeded:     st.Retrieval.Succeeded(),
		SearchDone:             st.Search != nil,
		ChartProduced:          st.Chart != nil,
		DispatchSucceeded:      st.Dispatch.Succeeded(),
		DispatchAttempts:       st.DispatchAttempts(),
	}
	if st.Dispatch != nil {
		sig.DispatchStatus = st.Dispatch.Status
	}
	return sig
}
