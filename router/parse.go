package router

import (
	"strings"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// aliases maps every token the model may use for a step to its label. The
// agent-style names are what the routing prompt advertises.
var aliases = map[string]turn.Label{
	"sql_agent":             turn.RetrieveData,
	"web_search_agent":      turn.SearchWeb,
	"visualization_agent":   turn.Visualize,
	"email_agent":           turn.DispatchNotification,
	"summarize":             turn.Summarize,
	"retrieve_data":         turn.RetrieveData,
	"search_web":            turn.SearchWeb,
	"visualize":             turn.Visualize,
	"dispatch_notification": turn.DispatchNotification,
}

// AliasFor returns the name advertised to the model for label.
func AliasFor(label turn.Label) string {
	switch label {
	case turn.RetrieveData:
		return "sql_agent"
	case turn.SearchWeb:
		return "web_search_agent"
	case turn.Visualize:
		return "visualization_agent"
	case turn.DispatchNotification:
		return "email_agent"
	default:
		return "summarize"
	}
}

// ParseLabel picks the label whose last occurrence starts furthest right in
// text. Matching is case-insensitive. The bool is false when no label occurs.
func ParseLabel(text string) (turn.Label, bool) {
	lower := strings.ToLower(text)
	best := -1
	label := turn.Summarize
	for token, l := range aliases {
		// no token is a prefix of another, so start positions never tie
		if pos := strings.LastIndex(lower, token); pos > best {
			best = pos
			label = l
		}
	}
	return label, best >= 0
}
