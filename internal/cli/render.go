package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(30)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	linkStyle  = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39"))
)

type row struct {
	key   string
	value string
	dim   bool
}

// renderTable renders a titled list of key/value rows
func renderTable(title string, rows []row) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	for _, r := range rows {
		style := valueStyle
		if r.dim {
			style = dimStyle
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(r.key), style.Render(r.value)))
		b.WriteString("\n")
	}
	return b.String()
}
