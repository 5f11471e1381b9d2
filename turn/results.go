package turn

import "strings"

// RetrievalStatus classifies the outcome of the data-retrieval step.
type RetrievalStatus string

const (
	RetrievalOK    RetrievalStatus = "ok"
	RetrievalEmpty RetrievalStatus = "empty"
	RetrievalError RetrievalStatus = "error"
)

// Retrieval holds the rows and status note written by the data-retrieval step.
type Retrieval struct {
	Status RetrievalStatus `json:"status"`
	Table  *Table          `json:"table,omitempty"`
	Note   string          `json:"note"`
	Query  string          `json:"query,omitempty"`
}

// NewRetrieval returns an ok or empty retrieval depending on the table.
func NewRetrieval(query string, table *Table, note string) *Retrieval {
	status := RetrievalOK
	if table.Empty() {
		status = RetrievalEmpty
	}
	return &Retrieval{Status: status, Table: table, Note: note, Query: query}
}

// FailedRetrieval records a retrieval error. The diagnostic goes into the note.
func FailedRetrieval(query, note string) *Retrieval {
	return &Retrieval{Status: RetrievalError, Note: note, Query: query}
}

// FailedOrEmpty reports whether the retrieval ended the data-dependent part of the turn.
func (r *Retrieval) FailedOrEmpty() bool {
	if r == nil {
		return false
	}
	return r.Status != RetrievalOK || r.Table.Empty()
}

// Succeeded reports whether usable rows are available.
func (r *Retrieval) Succeeded() bool {
	return r != nil && !r.FailedOrEmpty()
}

// Search holds external context from the web-search step.
type Search struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed,omitempty"`
}

// Chart holds a rendered figure or the reason rendering failed.
type Chart struct {
	JSON string `json:"json,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Available reports whether a figure was rendered.
func (c *Chart) Available() bool {
	return c != nil && c.Err == "" && strings.HasPrefix(strings.TrimSpace(c.JSON), "{")
}

// SuccessMarker is the substring a dispatch status carries on success.
const SuccessMarker = "successfully sent"

// Dispatch holds the notification outcome and its retry bookkeeping.
type Dispatch struct {
	Status string `json:"status"`
	// Attempts counts dispatch invocations this turn.
	Attempts int `json:"attempts"`
	// Sends counts transport calls, including retries, for the last invocation.
	Sends     int    `json:"sends"`
	LastError string `json:"last_error,omitempty"`
}

// Succeeded reports whether the status carries the success marker.
func (d *Dispatch) Succeeded() bool {
	return d != nil && strings.Contains(d.Status, SuccessMarker)
}

// Material kinds a notification can be composed from.
const (
	MaterialData   = "raw_csv_data"
	MaterialReport = "previous_chat_text"
)

// Material is the content a notification is composed from.
type Material struct {
	Kind string
	Text string
}
