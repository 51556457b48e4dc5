package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// visibleLen measures printable width, ignoring ANSI color codes.
func visibleLen(s string) int {
	return lipgloss.Width(s)
}

func padRight(s string, width int) string {
	n := visibleLen(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
