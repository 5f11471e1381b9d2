package chart

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

func TestSchema(t *testing.T) {
	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(Schema()), &s))
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "type")
	assert.Contains(t, props, "x")
	assert.Contains(t, props, "y")
	assert.ElementsMatch(t, []any{"type", "x", "y"}, s["required"])
}

func TestValidate(t *testing.T) {
	spec, err := Validate("```json\n{\"type\":\"bar\",\"x\":\"region\",\"y\":[\"total_sales\"],\"title\":\"Sales\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, Bar, spec.Type)
	assert.Equal(t, "region", spec.X)
	assert.Equal(t, []string{"total_sales"}, spec.Y)

	spec, err = Validate("Here you go: {\"type\":\"line\",\"x\":\"month\",\"y\":[\"sales\"]} done")
	require.NoError(t, err)
	assert.Equal(t, Line, spec.Type)

	for _, bad := range []string{
		"not json",
		`{"type":"heatmap","x":"a","y":["b"]}`,
		`{"type":"bar","x":"a","y":[]}`,
		`{"type":"bar","y":["b"]}`,
	} {
		_, err := Validate(bad)
		assert.Error(t, err, bad)
	}
}

func salesByRegion() *turn.Table {
	return turn.NewTable([]string{"region", "total_sales"}, [][]string{
		{"North", "1500.5"},
		{"South", "900"},
	})
}

func TestRenderBar(t *testing.T) {
	out, err := Render(&Spec{Type: Bar, X: "region", Y: []string{"total_sales"}, Title: "Sales", Currency: true}, salesByRegion())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "{"))

	var fig Figure
	require.NoError(t, json.Unmarshal([]byte(out), &fig))
	require.Len(t, fig.Data, 1)
	assert.Equal(t, "bar", fig.Data[0].Type)
	assert.Equal(t, []string{"North", "South"}, fig.Data[0].X)
	assert.Equal(t, []float64{1500.5, 900}, fig.Data[0].Y)
	assert.Equal(t, "Sales", fig.Layout.Title.Text)
	require.NotNil(t, fig.Layout.YAxis)
	assert.Equal(t, CurrencyPrefix, fig.Layout.YAxis.TickPrefix)
}

func TestRenderPieAndLine(t *testing.T) {
	fig, err := Build(&Spec{Type: Pie, X: "region", Y: []string{"total_sales"}}, salesByRegion())
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []string{"North", "South"}, fig.Data[0].Labels)
	assert.Nil(t, fig.Layout.YAxis)

	fig, err = Build(&Spec{Type: Line, X: "REGION", Y: []string{"total_sales"}}, salesByRegion())
	require.NoError(t, err)
	assert.Equal(t, "lines+markers", fig.Data[0].Mode)
}

func TestRenderSingleRowMelt(t *testing.T) {
	table := turn.NewTable([]string{"year", "total_sales", "total_profit"}, [][]string{{"2024", "100", "20"}})
	fig, err := Build(&Spec{Type: Line, X: "year", Y: []string{"total_sales"}}, table)
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, "bar", fig.Data[0].Type)
	assert.Equal(t, []string{"year", "total_sales", "total_profit"}, fig.Data[0].X)
	assert.Equal(t, []float64{2024, 100, 20}, fig.Data[0].Y)
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(&Spec{Type: Bar, X: "city", Y: []string{"total_sales"}}, salesByRegion())
	assert.ErrorContains(t, err, "city")

	_, err = Render(&Spec{Type: Bar, X: "total_sales", Y: []string{"region"}}, salesByRegion())
	assert.ErrorContains(t, err, "not numeric")

	_, err = Render(&Spec{Type: Bar, X: "region", Y: []string{"total_sales"}}, turn.NewTable([]string{"region"}, nil))
	assert.Error(t, err)

	_, err = Render(nil, salesByRegion())
	assert.Error(t, err)
}

func TestLooksMonetary(t *testing.T) {
	assert.True(t, LooksMonetary("Total_Sales_Amount"))
	assert.False(t, LooksMonetary("units_sold"))
}
