package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Brand colors
var (
	Brand  = color.New(color.FgHiYellow, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const Bolt = "\u26A1" // ⚡

// Out is where the printers write. Tests swap it for a buffer.
var Out io.Writer = color.Output

// DisableColor turns off all color output.
func DisableColor() {
	color.NoColor = true
}

// Banner prints the zappy banner with a subtitle.
func Banner(subtitle string) {
	fmt.Fprintf(Out, "%s %s - %s\n\n", Bolt, Brand.Sprint("zappy"), subtitle)
}

// Table prints a simple aligned table.
func Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += padRight(h, widths[i]) + "  "
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(Out, strings.TrimRight(headerLine, " "))
	Subtle.Fprintln(Out, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += padRight(cell, widths[i]) + "  "
			}
		}
		fmt.Fprintln(Out, strings.TrimRight(line, " "))
	}
}

// StatusIcon returns a status icon string.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// PendingIcon marks something not yet present.
func PendingIcon() string {
	return Subtle.Sprint("○")
}

// WarnIcon returns a warning icon.
func WarnIcon() string {
	return Warn.Sprint("⚠")
}

// Success prints a green check line.
func Success(format string, args ...any) {
	fmt.Fprintf(Out, "  %s %s\n", StatusIcon(true), Good.Sprintf(format, args...))
}

// Error prints a red cross line.
func Error(format string, args ...any) {
	fmt.Fprintf(Out, "  %s %s\n", StatusIcon(false), Bad.Sprintf(format, args...))
}

// Warning prints a yellow warning line.
func Warning(format string, args ...any) {
	fmt.Fprintf(Out, "  %s %s\n", WarnIcon(), Warn.Sprintf(format, args...))
}

// Note prints an informational line.
func Note(format string, args ...any) {
	fmt.Fprintf(Out, "  %s %s\n", Info.Sprint("ℹ"), fmt.Sprintf(format, args...))
}

// Dim prints a muted line, typically a command being run.
func Dim(format string, args ...any) {
	fmt.Fprintf(Out, "  %s\n", Subtle.Sprintf(format, args...))
}

// KeyValue prints an aligned "key: value" line.
func KeyValue(key, value string) {
	fmt.Fprintf(Out, "  %-22s %s\n", key+":", value)
}

// Block prints multi-line command output indented under a heading.
func Block(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(Out, "    %s\n", line)
	}
}
