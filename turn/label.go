package turn

// Label names the next step of a turn. The set is closed.
type Label string

const (
	RetrieveData         Label = "retrieve_data"
	SearchWeb            Label = "search_web"
	Visualize            Label = "visualize"
	DispatchNotification Label = "dispatch_notification"
	Summarize            Label = "summarize"
)

var labels = []Label{RetrieveData, SearchWeb, Visualize, DispatchNotification, Summarize}

// Labels returns every label in declaration order.
func Labels() []Label {
	out := make([]Label, len(labels))
	copy(out, labels)
	return out
}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	for _, known := range labels {
		if l == known {
			return true
		}
	}
	return false
}

// Terminal reports whether l ends the turn.
func (l Label) Terminal() bool {
	return l == Summarize
}

func (l Label) String() string {
	return string(l)
}
