package cmd

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/msalah0e/zappy/internal/runner"
	"github.com/msalah0e/zappy/internal/ui"
)

func TestConsoleBackExits(t *testing.T) {
	a, buf := newTestApp(t, runner.NewFake(), "b\n")
	a.console(context.Background())
	if !strings.Contains(buf.String(), "Exiting") {
		t.Errorf("expected exit message:\n%s", buf.String())
	}
}

func TestConsoleEndOfInputExits(t *testing.T) {
	a, _ := newTestApp(t, runner.NewFake(), "")
	a.console(context.Background())
}

func TestConsoleNavigatesSubmenus(t *testing.T) {
	f := runner.NewFake()
	// System utilities > Monitor > Failed services, continue, back, back, quit.
	a, buf := newTestApp(t, f, "5\n9\n4\n\nb\nb\nb\n")

	a.console(context.Background())

	if !f.Ran("systemctl list-units --type=service --state=failed --no-pager") {
		t.Errorf("failed units not listed: %v", f.Lines())
	}
	if !strings.Contains(buf.String(), "No failed services") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestConsoleReturnsOnCancel(t *testing.T) {
	a, buf := newTestApp(t, runner.NewFake(), "")
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	a.prompt = ui.NewPrompter(pr, buf)

	// Firewall menu, then block at its prompt with no further input.
	go func() { _, _ = io.WriteString(pw, "2\n") }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.console(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("console still waiting for input after cancel")
	}
}

func TestConsoleSkipsMenuWhenCancelled(t *testing.T) {
	f := runner.NewFake()
	a, _ := newTestApp(t, f, "5\n9\n4\n\nb\nb\nb\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a.console(ctx)

	if len(f.Lines()) != 0 {
		t.Errorf("commands ran after cancel: %v", f.Lines())
	}
}
