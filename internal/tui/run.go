package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork renders model while workFn runs in a goroutine and returns
// once both have finished. Input is left alone so a prompt can follow the
// table.
//
// If the program stops early (Ctrl-C, a broken terminal), workFn still
// runs to completion; its sends are dropped.
func RunWithWork(out io.Writer, model ProgressModel, workFn func(send func(tea.Msg))) error {
	p := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		workFn(p.Send)
		p.Send(WorkDoneMsg{})
	}()

	_, err := p.Run()
	<-done
	return err
}
