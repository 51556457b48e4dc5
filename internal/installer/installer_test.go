package installer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/config"
	"github.com/msalah0e/zappy/internal/hooks"
	"github.com/msalah0e/zappy/internal/planner"
	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
	"github.com/msalah0e/zappy/internal/selector"
)

// host simulates a machine: detection probes answer from installed, and
// install commands flip entries unless listed in broken.
type host struct {
	mu        sync.Mutex
	installed map[string]bool
	broken    map[string]bool
	failExit  map[string]bool
}

func newHost(installed ...string) *host {
	h := &host{installed: map[string]bool{}, broken: map[string]bool{}, failExit: map[string]bool{}}
	for _, n := range installed {
		h.installed[n] = true
	}
	return h
}

func (h *host) handler(c runner.Command) (runner.Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	line := c.Line()
	if strings.HasPrefix(line, "sh -c command -v ") {
		bin := strings.TrimPrefix(line, "sh -c command -v ")
		if h.installed[bin] {
			return runner.Result{Stdout: "/usr/bin/" + bin}, true
		}
		return runner.Result{ExitCode: 1}, true
	}
	if strings.HasPrefix(line, "apt install -y ") {
		pkg := strings.TrimPrefix(line, "apt install -y ")
		if !h.broken[pkg] {
			h.installed[pkg] = true
		}
		if h.failExit[pkg] {
			return runner.Result{ExitCode: 100, Stderr: "E: dpkg was interrupted"}, true
		}
		return runner.Result{}, true
	}
	return runner.Result{}, false
}

type event struct {
	kind string
	name string
}

type recorder struct {
	events []event
}

func (r *recorder) IndexUpdate(argv []string, err error) {
	r.events = append(r.events, event{"index", strings.Join(argv, " ")})
}
func (r *recorder) Start(t catalog.Tool, _, _ int) { r.events = append(r.events, event{"start", t.Name}) }
func (r *recorder) Step(t catalog.Tool, d string)  { r.events = append(r.events, event{"step", t.Name}) }
func (r *recorder) Done(o Outcome)                 { r.events = append(r.events, event{"done", o.Name}) }

func packageTools(names ...string) []catalog.Tool {
	tools := make([]catalog.Tool, len(names))
	for i, n := range names {
		tools[i] = catalog.Tool{Name: n, Kind: catalog.KindPackage, Command: n}
	}
	return tools
}

func newBatch(t *testing.T, tools []catalog.Tool, pm platform.PackageManager, h *host) (*Batch, *runner.Fake) {
	t.Helper()
	cat, err := catalog.New(tools)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	f := runner.NewFake()
	if h != nil {
		f.Handler = h.handler
	}
	pd := platform.Descriptor{Manager: pm}
	return &Batch{
		Runner:   f,
		Platform: pd,
		Catalog:  cat,
		Detector: catalog.Detector{Runner: f, Platform: pd},
		Env:      Env{Arch: "x86_64", Home: t.TempDir(), TempDir: t.TempDir()},
	}, f
}

func TestExecuteIsolatesFailures(t *testing.T) {
	h := newHost()
	h.broken["beta"] = true
	b, f := newBatch(t, packageTools("alpha", "beta", "gamma"), platform.APT, h)

	res := b.Execute(context.Background(), []string{"alpha", "beta", "gamma"})

	if !reflect.DeepEqual(res.Succeeded, []string{"alpha", "gamma"}) {
		t.Errorf("Succeeded: got %v", res.Succeeded)
	}
	if !reflect.DeepEqual(res.Failed, []string{"beta"}) {
		t.Errorf("Failed: got %v", res.Failed)
	}
	if res.OK() {
		t.Error("batch with a failure should not be OK")
	}
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if n := f.Count("apt install -y " + name); n != 1 {
			t.Errorf("%s installer ran %d times, expected 1", name, n)
		}
	}
	if f.Count("apt update") != 1 {
		t.Errorf("expected one index update, got %d", f.Count("apt update"))
	}
	if f.Lines()[0] != "apt update" {
		t.Errorf("index update should run first, got %v", f.Lines())
	}
	if !errors.Is(res.Outcomes[1].Err, ErrNotDetected) {
		t.Errorf("beta should fail detection, got %v", res.Outcomes[1].Err)
	}
}

func TestExecuteUnsupportedPlatform(t *testing.T) {
	b, f := newBatch(t, packageTools("htop"), platform.Unknown, newHost())

	res := b.Execute(context.Background(), []string{"htop"})

	if !reflect.DeepEqual(res.Failed, []string{"htop"}) {
		t.Errorf("Failed: got %v", res.Failed)
	}
	if !errors.Is(res.Outcomes[0].Err, platform.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", res.Outcomes[0].Err)
	}
	if len(f.Calls) != 0 {
		t.Errorf("runner must not be called, got %v", f.Lines())
	}
}

func TestExecuteAlreadyPresent(t *testing.T) {
	b, f := newBatch(t, packageTools("jq"), platform.APT, newHost("jq"))

	res := b.Execute(context.Background(), []string{"jq"})

	if !res.OK() || res.Outcomes[0].Status != AlreadyPresent {
		t.Errorf("expected already-present success, got %+v", res.Outcomes[0])
	}
	if f.RanPrefix("apt install") {
		t.Error("installer should not run for a present tool")
	}
}

func TestExecuteTrustsDetectorOverExitCode(t *testing.T) {
	h := newHost()
	h.failExit["tmux"] = true
	b, _ := newBatch(t, packageTools("tmux"), platform.APT, h)

	res := b.Execute(context.Background(), []string{"tmux"})
	if !res.OK() {
		t.Errorf("detected tool should count as installed despite exit 100: %+v", res.Outcomes[0])
	}
}

func TestExecuteReportsInstallerDiagnostic(t *testing.T) {
	h := newHost()
	h.broken["tmux"] = true
	h.failExit["tmux"] = true
	b, _ := newBatch(t, packageTools("tmux"), platform.APT, h)

	res := b.Execute(context.Background(), []string{"tmux"})
	if res.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Outcomes[0].Err.Error(), "dpkg was interrupted") {
		t.Errorf("failure should carry stderr, got %v", res.Outcomes[0].Err)
	}
}

func TestExecuteIndexUpdateFailureIsNotFatal(t *testing.T) {
	h := newHost()
	b, f := newBatch(t, packageTools("tree"), platform.APT, h)
	f.Handler = func(c runner.Command) (runner.Result, bool) {
		if c.Line() == "apt update" {
			return runner.Result{ExitCode: 1, Stderr: "network unreachable"}, true
		}
		return h.handler(c)
	}
	rec := &recorder{}
	b.Reporter = rec

	res := b.Execute(context.Background(), []string{"tree"})
	if !res.OK() {
		t.Errorf("install should proceed after a failed index update: %+v", res)
	}
	if rec.events[0].kind != "index" {
		t.Errorf("expected index event first, got %v", rec.events)
	}
}

func TestExecuteSkipsIndexForScriptsOnly(t *testing.T) {
	tools := []catalog.Tool{{Name: "rust", Kind: catalog.KindScript, Strategy: catalog.StrategyRustup, Command: "rustc"}}
	h := newHost()
	b, f := newBatch(t, tools, platform.APT, h)
	f.Handler = func(c runner.Command) (runner.Result, bool) {
		if strings.Contains(c.Line(), "sh.rustup.rs") {
			h.mu.Lock()
			h.installed["rustc"] = true
			h.mu.Unlock()
			return runner.Result{}, true
		}
		return h.handler(c)
	}

	res := b.Execute(context.Background(), []string{"rust"})
	if !res.OK() {
		t.Fatalf("rust should install: %+v", res.Outcomes)
	}
	if f.Ran("apt update") {
		t.Error("script-only batch should not refresh the package index")
	}
	c, ok := f.Find("bash -c curl --proto")
	if !ok || c.Elevate {
		t.Errorf("rustup should run unelevated through bash, got %v", f.Lines())
	}
}

func TestExecuteSkipIndexUpdate(t *testing.T) {
	b, f := newBatch(t, packageTools("htop"), platform.APT, newHost())
	b.SkipIndexUpdate = true
	b.Execute(context.Background(), []string{"htop"})
	if f.Ran("apt update") {
		t.Error("index update should be skipped")
	}
}

func TestExecuteScriptOnUnknownPlatform(t *testing.T) {
	tools := []catalog.Tool{{Name: "claude-code", Kind: catalog.KindScript, Strategy: catalog.StrategyClaude, Command: "claude"}}
	b, f := newBatch(t, tools, platform.Unknown, newHost())

	b.Execute(context.Background(), []string{"claude-code"})
	if !f.RanPrefix("bash -c curl -fsSL " + ClaudeInstallURL) {
		t.Errorf("script tools should still run on unknown platforms, got %v", f.Lines())
	}
}

func TestExecuteUnmappedArchFailsOnlyThatTool(t *testing.T) {
	tools := append(packageTools("htop"), catalog.Tool{Name: "go", Kind: catalog.KindScript, Strategy: catalog.StrategyGoTarball, Command: "go"})
	b, f := newBatch(t, tools, platform.APT, newHost())
	b.Env.Arch = "mips64"

	res := b.Execute(context.Background(), []string{"go", "htop"})

	if !reflect.DeepEqual(res.Failed, []string{"go"}) || !reflect.DeepEqual(res.Succeeded, []string{"htop"}) {
		t.Errorf("unexpected split: ok=%v failed=%v", res.Succeeded, res.Failed)
	}
	if !errors.Is(res.Outcomes[0].Err, ErrUnmappedArch) {
		t.Errorf("expected ErrUnmappedArch, got %v", res.Outcomes[0].Err)
	}
	if f.RanPrefix("rm -rf /usr/local/go") {
		t.Error("no go install commands should run for an unmapped arch")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	b, _ := newBatch(t, packageTools("htop"), platform.APT, newHost())
	res := b.Execute(context.Background(), []string{"nope"})
	if !reflect.DeepEqual(res.Failed, []string{"nope"}) {
		t.Errorf("unknown tool should fail, got %+v", res)
	}
}

func TestExecuteResolvesPackageName(t *testing.T) {
	tools := []catalog.Tool{{
		Name: "fd", Kind: catalog.KindPackage, Command: "fd",
		Commands: map[string]string{"apt": "fdfind"},
		Packages: map[string]string{"apt": "fd-find"},
	}}
	h := newHost()
	b, f := newBatch(t, tools, platform.APT, h)
	f.Handler = func(c runner.Command) (runner.Result, bool) {
		if c.Line() == "apt install -y fd-find" {
			h.mu.Lock()
			h.installed["fdfind"] = true
			h.mu.Unlock()
			return runner.Result{}, true
		}
		return h.handler(c)
	}

	res := b.Execute(context.Background(), []string{"fd"})
	if !res.OK() {
		t.Fatalf("fd should install: %+v", res.Outcomes)
	}
	c, ok := f.Find("apt install -y fd-find")
	if !ok || !c.Elevate {
		t.Errorf("expected elevated fd-find install, got %v", f.Lines())
	}
}

func TestExecuteHooksAndRecord(t *testing.T) {
	b, f := newBatch(t, packageTools("ncdu"), platform.APT, newHost())
	b.Hooks = &hooks.Hooks{Runner: f, Config: config.HooksConfig{PreInstall: "echo pre", PostInstall: "echo post"}}
	var recorded []string
	b.Record = func(tool catalog.Tool, version string) error {
		recorded = append(recorded, tool.Name)
		return nil
	}
	rec := &recorder{}
	b.Reporter = rec

	b.Execute(context.Background(), []string{"ncdu"})

	if !f.Ran("sh -c echo pre") || !f.Ran("sh -c echo post") {
		t.Errorf("hooks should run around the install, got %v", f.Lines())
	}
	if !reflect.DeepEqual(recorded, []string{"ncdu"}) {
		t.Errorf("Record: got %v", recorded)
	}
	kinds := make([]string, len(rec.events))
	for i, e := range rec.events {
		kinds[i] = e.kind
	}
	if got := strings.Join(kinds, ","); got != "index,start,step,done" {
		t.Errorf("reporter events: got %s", got)
	}
}

func TestMissingKeywordEndToEnd(t *testing.T) {
	names := []string{"htop", "micro", "ncdu", "tmux", "tree"}
	h := newHost("micro", "tmux")
	b, _ := newBatch(t, packageTools(names...), platform.APT, h)
	ctx := context.Background()

	missing := b.Detector.Missing(ctx, b.Catalog)
	indices, err := selector.Parse("missing", b.Catalog.Len(), selector.Keywords(b.Catalog.Len(), missing))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	selected := b.Catalog.Names(indices)

	plan := planner.Build(selected, func(name string) bool {
		return b.Detector.IsInstalled(ctx, *b.Catalog.Get(name))
	})
	want := []string{"htop", "ncdu", "tree"}
	if !reflect.DeepEqual(plan.PendingInstall, want) {
		t.Fatalf("PendingInstall: expected %v, got %v", want, plan.PendingInstall)
	}

	res := b.Execute(ctx, plan.PendingInstall)
	if !res.OK() || !reflect.DeepEqual(res.Succeeded, want) || len(res.Failed) != 0 {
		t.Errorf("expected all three installed, got ok=%v failed=%v", res.Succeeded, res.Failed)
	}
}

func TestMethod(t *testing.T) {
	fd := catalog.Tool{Name: "fd", Kind: catalog.KindPackage, Packages: map[string]string{"apt": "fd-find"}}
	if m, p := Method(fd, platform.APT); m != "apt" || p != "fd-find" {
		t.Errorf("package method: got %s %s", m, p)
	}
	goTool := catalog.Tool{Name: "go", Kind: catalog.KindScript, Strategy: catalog.StrategyGoTarball}
	if m, p := Method(goTool, platform.APT); m != "script:go-tarball" || p != "" {
		t.Errorf("script method: got %s %s", m, p)
	}
}
