package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 2).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().Faint(true)
)

// Header renders a framed section title with an optional subtitle line.
func Header(title, subtitle string) string {
	body := title
	if subtitle != "" {
		body += "\n" + subtitleStyle.Render(subtitle)
	}
	return headerBox.Render(body)
}

// PrintHeader writes a framed header followed by a blank line.
func PrintHeader(title, subtitle string) {
	fmt.Fprintln(Out, Header(title, subtitle))
	fmt.Fprintln(Out)
}
