package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/installer"
	"github.com/msalah0e/zappy/internal/ui"
)

// InstallColumns is the table layout for batch installs.
var InstallColumns = []Column{
	{Header: "TOOL", Width: 22},
	{Header: "STATUS", Width: 17},
	{Header: "TIME", Width: 6},
	{Header: "DETAIL", Width: 44},
}

// NewInstallModel builds a progress table with one pending row per tool.
func NewInstallModel(title string, tools []catalog.Tool) ProgressModel {
	m := NewProgressModel(title, InstallColumns)
	for _, t := range tools {
		m.AddRow(t.Name, []string{t.DisplayName(), "pending", "", ""})
	}
	return m
}

// InstallReporter turns batch progress events into table updates.
type InstallReporter struct {
	send func(tea.Msg)
}

// NewInstallReporter sends updates through send, normally tea.Program.Send.
func NewInstallReporter(send func(tea.Msg)) *InstallReporter {
	return &InstallReporter{send: send}
}

// IndexUpdate implements installer.Reporter.
func (r *InstallReporter) IndexUpdate(argv []string, err error) {
	text := "package index updated"
	if err != nil {
		text = "package index update failed, continuing"
	}
	r.send(FooterMsg{Text: text})
}

// Start implements installer.Reporter.
func (r *InstallReporter) Start(tool catalog.Tool, index, total int) {
	r.send(RowUpdateMsg{Key: tool.Name, Fields: map[string]string{"STATUS": "checking"}})
	r.send(FooterMsg{Text: fmt.Sprintf("[%d/%d] %s", index+1, total, tool.DisplayName())})
}

// Step implements installer.Reporter.
func (r *InstallReporter) Step(tool catalog.Tool, description string) {
	r.send(RowUpdateMsg{Key: tool.Name, Fields: map[string]string{
		"STATUS": "installing",
		"DETAIL": description,
	}})
}

// Done implements installer.Reporter.
func (r *InstallReporter) Done(o installer.Outcome) {
	detail := ""
	if o.Err != nil {
		detail = firstLine(o.Err.Error())
	}
	r.send(RowUpdateMsg{Key: o.Name, Fields: map[string]string{
		"STATUS": o.Status.String(),
		"TIME":   formatElapsed(o.Elapsed),
		"DETAIL": detail,
	}})
}

// PlainReporter prints one line per event, for pipes and dumb terminals.
type PlainReporter struct {
	w io.Writer
}

// NewPlainReporter writes to w.
func NewPlainReporter(w io.Writer) *PlainReporter {
	return &PlainReporter{w: w}
}

// IndexUpdate implements installer.Reporter.
func (r *PlainReporter) IndexUpdate(argv []string, err error) {
	if err != nil {
		fmt.Fprintf(r.w, "  %s %s\n", ui.WarnIcon(), ui.Warn.Sprintf("Package index update failed (%s), continuing", strings.Join(argv, " ")))
		return
	}
	fmt.Fprintf(r.w, "  %s %s\n", ui.StatusIcon(true), "Package index updated")
}

// Start implements installer.Reporter.
func (r *PlainReporter) Start(tool catalog.Tool, index, total int) {
	fmt.Fprintf(r.w, "\n  %s %s\n", ui.Subtle.Sprintf("[%d/%d]", index+1, total), ui.Brand.Sprint(tool.DisplayName()))
}

// Step implements installer.Reporter.
func (r *PlainReporter) Step(tool catalog.Tool, description string) {
	fmt.Fprintf(r.w, "      %s\n", ui.Subtle.Sprint(description))
}

// Done implements installer.Reporter.
func (r *PlainReporter) Done(o installer.Outcome) {
	switch o.Status {
	case installer.Installed:
		fmt.Fprintf(r.w, "  %s %s installed %s\n", ui.StatusIcon(true), o.Label, ui.Subtle.Sprintf("(%s)", formatElapsed(o.Elapsed)))
	case installer.AlreadyPresent:
		fmt.Fprintf(r.w, "  %s %s already installed\n", ui.StatusIcon(true), o.Label)
	default:
		fmt.Fprintf(r.w, "  %s %s failed: %v\n", ui.StatusIcon(false), o.Label, o.Err)
	}
}

// Install runs exec with a reporter suited to mode. In ModeTUI the table
// stays on screen after the batch ends.
func Install(out io.Writer, mode OutputMode, title string, tools []catalog.Tool, exec func(installer.Reporter) installer.Result) (installer.Result, error) {
	if mode != ModeTUI {
		return exec(NewPlainReporter(out)), nil
	}
	var res installer.Result
	err := RunWithWork(out, NewInstallModel(title, tools), func(send func(tea.Msg)) {
		res = exec(NewInstallReporter(send))
	})
	return res, err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// formatElapsed renders a duration compactly: "850ms", "12s", "3m05s".
func formatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
