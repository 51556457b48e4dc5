package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const tickInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// finalStatuses are the STATUS values that count a row as processed.
var finalStatuses = map[string]bool{
	"installed":         true,
	"already installed": true,
	"failed":            true,
}

type tickMsg time.Time

// Column is one table column. Width is the minimum display width.
type Column struct {
	Header string
	Width  int
}

// ProgressModel draws a batch as a table, one row per key, with a spinner
// line underneath until WorkDoneMsg arrives.
type ProgressModel struct {
	title   string
	columns []Column
	keys    []string
	cells   map[string][]string
	status  int
	footer  string
	frame   int
	done    bool
}

// NewProgressModel returns an empty table.
func NewProgressModel(title string, columns []Column) ProgressModel {
	m := ProgressModel{
		title:   title,
		columns: columns,
		cells:   make(map[string][]string),
	}
	m.status = m.column("STATUS")
	return m
}

func (m ProgressModel) column(header string) int {
	for i, c := range m.columns {
		if strings.EqualFold(c.Header, header) {
			return i
		}
	}
	return -1
}

// AddRow appends a row before the program starts. Missing fields are blank.
func (m *ProgressModel) AddRow(key string, fields []string) {
	row := make([]string, len(m.columns))
	copy(row, fields)
	m.keys = append(m.keys, key)
	m.cells[key] = row
}

// Cell returns the value under header in the row for key.
func (m ProgressModel) Cell(key, header string) string {
	i := m.column(header)
	row, ok := m.cells[key]
	if !ok || i < 0 {
		return ""
	}
	return row[i]
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case RowUpdateMsg:
		row, ok := m.cells[msg.Key]
		if !ok {
			return m, nil
		}
		// Rows are shared with earlier model values; copy before writing.
		row = append([]string(nil), row...)
		for header, v := range msg.Fields {
			if i := m.column(header); i >= 0 {
				row[i] = v
			}
		}
		cells := make(map[string][]string, len(m.cells))
		for k, v := range m.cells {
			cells[k] = v
		}
		cells[msg.Key] = row
		m.cells = cells
	case FooterMsg:
		m.footer = msg.Text
	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	widths := make([]int, len(m.columns))
	header := make([]string, len(m.columns))
	for i, c := range m.columns {
		widths[i] = max(c.Width, lipgloss.Width(c.Header))
		header[i] = c.Header
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title) + "\n\n")
	}
	b.WriteString(m.line(header, widths, func(int, string) lipgloss.Style { return HeaderStyle }))
	for _, k := range m.keys {
		b.WriteString(m.line(m.cells[k], widths, func(i int, v string) lipgloss.Style {
			if i == m.status {
				return StatusStyle(v)
			}
			return plainStyle
		}))
	}
	if !m.done {
		n, total := m.progressCounts()
		fmt.Fprintf(&b, "\n%s Installing %d/%d", spinnerFrames[m.frame%len(spinnerFrames)], n, total)
		if m.footer != "" {
			b.WriteString(footerStyle.Render("  " + m.footer))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m ProgressModel) line(fields []string, widths []int, style func(i int, v string) lipgloss.Style) string {
	parts := make([]string, len(fields))
	for i, v := range fields {
		v = TruncateWithEllipsis(v, widths[i])
		parts[i] = style(i, v).Render(pad(v, widths[i]))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ") + "\n"
}

// progressCounts returns how many rows reached a final status, and the
// row count.
func (m ProgressModel) progressCounts() (int, int) {
	if m.status < 0 {
		return 0, len(m.keys)
	}
	n := 0
	for _, k := range m.keys {
		if finalStatuses[strings.TrimSpace(m.cells[k][m.status])] {
			n++
		}
	}
	return n, len(m.keys)
}

// Done reports whether the batch has finished.
func (m ProgressModel) Done() bool {
	return m.done
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// TruncateWithEllipsis shortens value to max runes, ending in "..." when
// there is room for it.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(value))
	switch {
	case len(runes) <= max:
		return string(runes)
	case max <= 3:
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
