package turn

import (
	"encoding/csv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Table is a tabular result set with string cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable builds a table from a header and rows.
func NewTable(columns []string, rows [][]string) *Table {
	return &Table{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, bool) {
	if t == nil {
		return -1, false
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return -1, false
}

// CSV renders the table with a header row. An empty table renders as "".
func (t *Table) CSV() string {
	if t.Empty() {
		return ""
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(t.Columns)
	_ = w.WriteAll(t.Rows)
	return b.String()
}

// Preview renders up to n rows as an aligned text table.
func (t *Table) Preview(n int) string {
	if t.Empty() {
		return ""
	}
	rows := t.Rows
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	var b strings.Builder
	tw := tablewriter.NewWriter(&b)
	tw.SetHeader(t.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(rows)
	tw.Render()
	return b.String()
}
