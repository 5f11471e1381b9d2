package chart

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/chart"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

func reply(text string) llm.Completer {
	return llm.CompleterFunc(func(context.Context, string) (string, error) { return text, nil })
}

func monthly() *turn.Table {
	return turn.NewTable([]string{"month_str", "total_sales_amount"}, [][]string{
		{"2024-01", "1000"}, {"2024-02", "1500"}, {"2024-03", "1250"},
	})
}

func TestVisualize(t *testing.T) {
	var seen string
	c := llm.CompleterFunc(func(_ context.Context, p string) (string, error) {
		seen = p
		return `{"type":"line","x":"month_str","y":["total_sales_amount"],"title":"Monthly sales"}`, nil
	})

	out := New(c, WithPromptRows(2)).Visualize(context.Background(), "sales analysis for 2024", monthly())
	require.True(t, out.Available(), out.Err)

	var fig chart.Figure
	require.NoError(t, json.Unmarshal([]byte(out.JSON), &fig))
	assert.Equal(t, "lines+markers", fig.Data[0].Mode)
	assert.Len(t, fig.Data[0].X, 3)
	assert.Equal(t, chart.CurrencyPrefix, fig.Layout.YAxis.TickPrefix)

	assert.Contains(t, seen, "3 rows")
	assert.Contains(t, seen, "2024-02")
	assert.NotContains(t, seen, "2024-03")
}

func TestVisualizeFailures(t *testing.T) {
	out := New(reply("{}")).Visualize(context.Background(), "q", nil)
	assert.Equal(t, ErrNoData, out.Err)
	assert.False(t, out.Available())

	out = New(reply("import plotly.express as px")).Visualize(context.Background(), "q", monthly())
	assert.True(t, strings.HasPrefix(out.Err, "Error generating chart:"))
	assert.Empty(t, out.JSON)

	out = New(reply(`{"type":"bar","x":"city","y":["total_sales_amount"]}`)).Visualize(context.Background(), "q", monthly())
	assert.Contains(t, out.Err, "city")
}
