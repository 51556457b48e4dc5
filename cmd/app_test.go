package cmd

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/config"
	"github.com/msalah0e/zappy/internal/installer"
	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
	"github.com/msalah0e/zappy/internal/selector"
	"github.com/msalah0e/zappy/internal/state"
	"github.com/msalah0e/zappy/internal/ui"
)

var testTools = []catalog.Tool{
	{Name: "htop", Description: "Interactive process viewer", Kind: catalog.KindPackage, Command: "htop"},
	{Name: "micro", Description: "Terminal text editor", Kind: catalog.KindPackage, Command: "micro"},
	{Name: "ncdu", Description: "Disk usage analyzer", Kind: catalog.KindPackage, Command: "ncdu"},
	{Name: "ripgrep", Description: "Fast grep", Kind: catalog.KindPackage, Command: "rg"},
}

// newTestApp installs an app backed by f that reads answers from input.
// Output is captured in the returned buffer.
func newTestApp(t *testing.T, f *runner.Fake, input string) (*app, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cat, err := catalog.New(testTools)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	oldOut := ui.Out
	ui.Out = &buf
	ui.DisableColor()
	t.Cleanup(func() {
		ui.Out = oldOut
		current = nil
	})

	cfg := config.Default()
	cfg.UI.Progress = false
	cfg.Paths.BackupDir = t.TempDir()
	a := &app{
		cfg:    cfg,
		run:    f,
		plat:   platform.Descriptor{ID: "ubuntu", Name: "Ubuntu", Version: "24.04", Manager: platform.APT},
		cat:    cat,
		prompt: ui.NewPrompter(strings.NewReader(input), &buf),
	}
	current = a
	return a, &buf
}

// missingFake reports the named binaries as absent until an install
// command for them has run.
func missingFake(bins ...string) *runner.Fake {
	f := runner.NewFake()
	absent := make(map[string]bool)
	for _, b := range bins {
		absent[b] = true
	}
	f.Handler = func(c runner.Command) (runner.Result, bool) {
		line := c.Line()
		if bin, ok := strings.CutPrefix(line, "sh -c command -v "); ok && absent[bin] {
			return runner.Result{ExitCode: 1}, true
		}
		if pkgs, ok := strings.CutPrefix(line, "apt install -y "); ok {
			for _, p := range strings.Fields(pkgs) {
				delete(absent, p)
			}
		}
		return runner.Result{}, false
	}
	return f
}

func TestSelectNames(t *testing.T) {
	a, _ := newTestApp(t, missingFake("micro", "rg"), "")
	ctx := context.Background()

	tests := []struct {
		raw  string
		want []string
	}{
		{"1", []string{"htop"}},
		{"1-3", []string{"htop", "micro", "ncdu"}},
		{"4,1", []string{"htop", "ripgrep"}},
		{"all", []string{"htop", "micro", "ncdu", "ripgrep"}},
		{"missing", []string{"micro", "ripgrep"}},
		{"m", []string{"micro", "ripgrep"}},
	}
	for _, tt := range tests {
		got, err := a.selectNames(ctx, tt.raw, nil)
		if err != nil {
			t.Errorf("selectNames(%q): %v", tt.raw, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("selectNames(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSelectNamesInvalid(t *testing.T) {
	a, _ := newTestApp(t, runner.NewFake(), "")
	for _, raw := range []string{"9", "0", "2-1", "abc", ""} {
		_, err := a.selectNames(context.Background(), raw, nil)
		var pe *selector.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("selectNames(%q) error = %v, want *selector.ParseError", raw, err)
		}
	}
}

func TestSelectNamesSkipsDetectionWithoutKeyword(t *testing.T) {
	f := runner.NewFake()
	a, _ := newTestApp(t, f, "")
	if _, err := a.selectNames(context.Background(), "1,2", nil); err != nil {
		t.Fatal(err)
	}
	if f.RanPrefix("sh -c command -v") {
		t.Error("numeric selection should not probe tools")
	}
}

func TestResolveArgs(t *testing.T) {
	a, _ := newTestApp(t, runner.NewFake(), "")
	ctx := context.Background()

	got, err := a.resolveArgs(ctx, []string{"ncdu", "htop"})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"ncdu", "htop"}) {
		t.Errorf("by name = %v", got)
	}

	got, err = a.resolveArgs(ctx, []string{"1", "3-4"})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"htop", "ncdu", "ripgrep"}) {
		t.Errorf("by selector = %v", got)
	}

	if _, err := a.resolveArgs(ctx, []string{"htop", "nope"}); err == nil {
		t.Error("expected an error for an unknown name")
	}
}

func TestInstallNamesNothingPending(t *testing.T) {
	f := runner.NewFake()
	a, buf := newTestApp(t, f, "")

	_, ok := a.installNames(context.Background(), []string{"htop", "micro"}, true)
	if ok {
		t.Error("expected nothing to run")
	}
	if f.RanPrefix("apt install") {
		t.Error("no package should be installed")
	}
	out := buf.String()
	if !strings.Contains(out, "htop is already installed") || !strings.Contains(out, "Nothing to install") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestInstallNamesInstallsPending(t *testing.T) {
	f := missingFake("micro")
	a, buf := newTestApp(t, f, "")

	res, ok := a.installNames(context.Background(), []string{"htop", "micro"}, true)
	if !ok {
		t.Fatal("expected the batch to run")
	}
	if !res.OK() || !slices.Equal(res.Succeeded, []string{"micro"}) {
		t.Errorf("result = %+v", res)
	}
	if !f.Ran("apt install -y micro") {
		t.Errorf("apt install not run: %v", f.Lines())
	}
	if f.Ran("apt install -y htop") {
		t.Error("htop was already present")
	}
	if !state.IsInstalled("micro") {
		t.Error("micro should be recorded in state")
	}
	if !strings.Contains(buf.String(), "Installed 1/1 tools") {
		t.Errorf("missing summary:\n%s", buf.String())
	}
}

func TestInstallNamesReportsFailure(t *testing.T) {
	f := runner.NewFake().
		Fail("sh -c command -v micro").
		Fail("apt install -y micro")
	a, buf := newTestApp(t, f, "")

	res, ok := a.installNames(context.Background(), []string{"micro"}, true)
	if !ok {
		t.Fatal("expected the batch to run")
	}
	if res.OK() || len(res.Failed) != 1 || res.Outcomes[0].Status != installer.Failed {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(buf.String(), "1 failed") {
		t.Errorf("missing failure summary:\n%s", buf.String())
	}
}

func TestInstallNamesDeclined(t *testing.T) {
	f := missingFake("micro")
	a, _ := newTestApp(t, f, "n\n")

	if _, ok := a.installNames(context.Background(), []string{"micro"}, false); ok {
		t.Error("declined install should not run")
	}
	if f.RanPrefix("apt install") {
		t.Error("no package should be installed")
	}
}
