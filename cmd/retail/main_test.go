package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/events"
)

func TestIsQuit(t *testing.T) {
	for _, in := range []string{"quit", "EXIT", "Bye"} {
		assert.True(t, isQuit(in), in)
	}
	assert.False(t, isQuit("quit now"))
	assert.False(t, isQuit("goodbye"))
}

func TestProgressLine(t *testing.T) {
	assert.Equal(t, "  → retrieve_data", progressLine(events.Event{Kind: events.RouteDecided, Label: "retrieve_data"}))
	assert.Equal(t, "  → summarize (instead of search_web: redundant_search)", progressLine(events.Event{
		Kind:      events.RouteDecided,
		Label:     "summarize",
		Proposed:  "search_web",
		Guardrail: "redundant_search",
	}))
	assert.Equal(t, "  ✓ retrieve_data: 3 rows", progressLine(events.Event{Kind: events.AgentFinished, Label: "retrieve_data", Detail: "3 rows"}))
	assert.Empty(t, progressLine(events.Event{Kind: events.TurnStarted}))
}

func TestSaveChart(t *testing.T) {
	path, err := saveChart("", "abc", 1, "{}")
	require.NoError(t, err)
	assert.Empty(t, path)

	dir := filepath.Join(t.TempDir(), "charts")
	path, err = saveChart(dir, "0123456789abcdef", 2, `{"data":[]}`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chart-01234567-2.json"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, string(data))
}

func TestRootRegistersCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"chat", "ask", "dashboard", "serve", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}
