package chart

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// CurrencyPrefix is the axis tick prefix for monetary charts.
const CurrencyPrefix = "₹"

// Figure is a Plotly figure.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly trace.
type Trace struct {
	Type   string    `json:"type"`
	Name   string    `json:"name,omitempty"`
	Mode   string    `json:"mode,omitempty"`
	X      []string  `json:"x,omitempty"`
	Y      []float64 `json:"y,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// Layout is the subset of Plotly layout the renderer sets.
type Layout struct {
	Title    Text   `json:"title"`
	XAxis    *Axis  `json:"xaxis,omitempty"`
	YAxis    *Axis  `json:"yaxis,omitempty"`
	Template string `json:"template,omitempty"`
}

// Axis configures one axis.
type Axis struct {
	Title      Text   `json:"title"`
	TickPrefix string `json:"tickprefix,omitempty"`
}

// Text wraps a Plotly text attribute.
type Text struct {
	Text string `json:"text"`
}

// Render builds the figure for spec over table and returns it as JSON.
func Render(spec *Spec, table *turn.Table) (string, error) {
	fig, err := Build(spec, table)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(fig)
	if err != nil {
		return "", fmt.Errorf("encode figure: %w", err)
	}
	return string(b), nil
}

// Build assembles the figure. A single-row table with several numeric columns
// is reshaped to Metric/Value pairs and drawn as bars.
func Build(spec *Spec, table *turn.Table) (*Figure, error) {
	if spec == nil {
		return nil, fmt.Errorf("no chart spec")
	}
	if table.Empty() {
		return nil, fmt.Errorf("no data to chart")
	}

	if table.Len() == 1 {
		if melted, ok := Melt(table); ok {
			table = melted
			s := *spec
			s.X, s.Y = "Metric", []string{"Value"}
			if s.Type != Pie {
				s.Type = Bar
			}
			spec = &s
		}
	}

	xi, ok := table.Column(spec.X)
	if !ok {
		return nil, fmt.Errorf("column %q not found in data", spec.X)
	}
	xs := columnText(table, xi)

	fig := &Figure{Layout: Layout{Title: Text{Text: spec.Title}, Template: "plotly_white"}}
	for _, y := range spec.Y {
		yi, ok := table.Column(y)
		if !ok {
			return nil, fmt.Errorf("column %q not found in data", y)
		}
		ys, err := columnNumbers(table, yi)
		if err != nil {
			return nil, err
		}
		name := table.Columns[yi]
		switch spec.Type {
		case Pie:
			fig.Data = append(fig.Data, Trace{Type: "pie", Name: name, Labels: xs, Values: ys})
		case Line:
			fig.Data = append(fig.Data, Trace{Type: "scatter", Mode: "lines+markers", Name: name, X: xs, Y: ys})
		case Scatter:
			fig.Data = append(fig.Data, Trace{Type: "scatter", Mode: "markers", Name: name, X: xs, Y: ys})
		case Bar:
			fig.Data = append(fig.Data, Trace{Type: "bar", Name: name, X: xs, Y: ys})
		default:
			return nil, fmt.Errorf("unsupported chart type %q", spec.Type)
		}
		if spec.Type == Pie {
			break
		}
	}

	if spec.Type != Pie {
		fig.Layout.XAxis = &Axis{Title: Text{Text: table.Columns[xi]}}
		fig.Layout.YAxis = &Axis{Title: Text{Text: strings.Join(spec.Y, ", ")}}
		if spec.Currency {
			fig.Layout.YAxis.TickPrefix = CurrencyPrefix
		}
	}
	return fig, nil
}

// Melt turns a single row into Metric/Value rows, keeping numeric cells only.
func Melt(table *turn.Table) (*turn.Table, bool) {
	if table.Len() != 1 {
		return nil, false
	}
	out := turn.NewTable([]string{"Metric", "Value"}, nil)
	for i, col := range table.Columns {
		v := strings.TrimSpace(table.Rows[0][i])
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			continue
		}
		out.Rows = append(out.Rows, []string{col, v})
	}
	if len(out.Rows) < 2 {
		return nil, false
	}
	return out, true
}

func columnText(t *turn.Table, i int) []string {
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

func columnNumbers(t *turn.Table, i int) ([]float64, error) {
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q is not numeric: %q", t.Columns[i], cell)
		}
		out[r] = v
	}
	return out, nil
}
