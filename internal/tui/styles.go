package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// TitleStyle styles the line above the table.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

	footerStyle = lipgloss.NewStyle().Faint(true)
	plainStyle  = lipgloss.NewStyle()

	statusStyles = map[string]lipgloss.Style{
		"installed":         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"already installed": lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Faint(true),

		"checking":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"installing": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		"failed": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
