package main

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("6")
	colorMuted   = lipgloss.Color("241")
	colorError   = lipgloss.Color("203")

	promptStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	titleStyle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2).
			Width(22)
	cardLabelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	cardValueStyle = lipgloss.NewStyle().Bold(true)
)

// markdownRenderer renders assistant replies. It falls back to plain text
// when the terminal style cannot be detected.
type markdownRenderer struct {
	r *glamour.TermRenderer
}

func newMarkdownRenderer() *markdownRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return &markdownRenderer{}
	}
	return &markdownRenderer{r: r}
}

func (m *markdownRenderer) Render(text string) string {
	if m.r == nil {
		return text + "\n"
	}
	out, err := m.r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}
