// Package installer runs batch installs of catalog tools: package tools
// through the host package manager, script tools through named strategies.
package installer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/hooks"
	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
)

// ErrNotDetected is the failure recorded when an install ran but the tool
// still cannot be found afterwards.
var ErrNotDetected = errors.New("not detected after install")

// Status classifies one tool's outcome.
type Status int

const (
	Installed Status = iota + 1
	AlreadyPresent
	Failed
)

func (s Status) String() string {
	switch s {
	case Installed:
		return "installed"
	case AlreadyPresent:
		return "already installed"
	case Failed:
		return "failed"
	}
	return "pending"
}

// Outcome is the result for one tool.
type Outcome struct {
	Name    string
	Label   string
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Result summarises a batch. Both lists keep batch order.
type Result struct {
	Succeeded []string
	Failed    []string
	Outcomes  []Outcome
}

// OK reports whether every tool succeeded.
func (r Result) OK() bool {
	return len(r.Failed) == 0
}

// Reporter observes batch progress. Implementations render it.
type Reporter interface {
	IndexUpdate(argv []string, err error)
	Start(tool catalog.Tool, index, total int)
	Step(tool catalog.Tool, description string)
	Done(o Outcome)
}

// NopReporter discards progress events.
type NopReporter struct{}

func (NopReporter) IndexUpdate([]string, error)  {}
func (NopReporter) Start(catalog.Tool, int, int) {}
func (NopReporter) Step(catalog.Tool, string)    {}
func (NopReporter) Done(Outcome)                 {}

// Batch installs a list of tools sequentially. One tool failing never
// stops the others.
type Batch struct {
	Runner   runner.Runner
	Platform platform.Descriptor
	Catalog  *catalog.Catalog
	Detector catalog.Detector
	Env      Env
	Reporter Reporter
	Hooks    *hooks.Hooks

	// Timeout bounds each install command. Zero means no limit.
	Timeout time.Duration
	// SkipIndexUpdate suppresses the package-index refresh.
	SkipIndexUpdate bool
	// Record, when set, is called for each tool that ends up installed.
	Record func(tool catalog.Tool, version string) error
}

func (b *Batch) reporter() Reporter {
	if b.Reporter == nil {
		return NopReporter{}
	}
	return b.Reporter
}

// Execute installs pending in order. The package index is refreshed once
// up front when any package tool is pending and the platform is known; a
// failed refresh is reported but does not stop the batch.
func (b *Batch) Execute(ctx context.Context, pending []string) Result {
	rep := b.reporter()

	if !b.SkipIndexUpdate && b.Platform.Supported() && b.needsIndex(pending) {
		argv := b.Platform.UpdateCommand()
		rep.IndexUpdate(argv, b.Platform.UpdateIndex(ctx, b.Runner))
	}

	var res Result
	for i, name := range pending {
		o := b.installOne(ctx, name, i, len(pending))
		rep.Done(o)
		res.Outcomes = append(res.Outcomes, o)
		if o.Status == Failed {
			res.Failed = append(res.Failed, name)
		} else {
			res.Succeeded = append(res.Succeeded, name)
		}
	}
	return res
}

func (b *Batch) needsIndex(pending []string) bool {
	for _, name := range pending {
		if t := b.Catalog.Get(name); t != nil && t.Kind == catalog.KindPackage {
			return true
		}
	}
	return false
}

func (b *Batch) installOne(ctx context.Context, name string, index, total int) Outcome {
	start := time.Now()
	o := Outcome{Name: name, Label: name}

	tool := b.Catalog.Get(name)
	if tool == nil {
		o.Status, o.Err = Failed, fmt.Errorf("unknown tool %q", name)
		return o
	}
	o.Label = tool.DisplayName()
	b.reporter().Start(*tool, index, total)

	if tool.Kind == catalog.KindPackage && !b.Platform.Supported() {
		o.Status, o.Err = Failed, platform.ErrUnsupported
		o.Elapsed = time.Since(start)
		return o
	}

	if b.Detector.IsInstalled(ctx, *tool) {
		o.Status = AlreadyPresent
		o.Elapsed = time.Since(start)
		return o
	}

	_ = b.Hooks.Run(ctx, hooks.PreInstall, tool.Name, string(tool.Kind))

	var installErr error
	switch tool.Kind {
	case catalog.KindScript:
		installErr = b.runStrategy(ctx, *tool)
	case catalog.KindPackage:
		installErr = b.runPackage(ctx, *tool)
	default:
		installErr = fmt.Errorf("unknown kind %q", tool.Kind)
	}

	// The detector is authoritative: exit codes only explain failures.
	if !b.Detector.IsInstalled(ctx, *tool) {
		o.Status = Failed
		o.Err = ErrNotDetected
		if installErr != nil {
			o.Err = installErr
		}
		o.Elapsed = time.Since(start)
		return o
	}

	o.Status = Installed
	if b.Record != nil {
		version := b.Detector.DetectOne(ctx, *tool).Version
		_ = b.Record(*tool, version)
	}
	_ = b.Hooks.Run(ctx, hooks.PostInstall, tool.Name, string(tool.Kind))
	o.Elapsed = time.Since(start)
	return o
}

func (b *Batch) runPackage(ctx context.Context, tool catalog.Tool) error {
	pkg := tool.PackageName(b.Platform.Manager)
	argv := b.Platform.InstallCommand(pkg)
	if platform.IsSentinel(argv) {
		return platform.ErrUnsupported
	}
	b.reporter().Step(tool, "installing package "+pkg)
	c := runner.Sudo(argv...)
	c.Timeout = b.Timeout
	return runner.Do(ctx, b.Runner, c)
}

func (b *Batch) runStrategy(ctx context.Context, tool catalog.Tool) error {
	s, err := StrategyFor(tool.Strategy)
	if err != nil {
		return err
	}
	steps, err := s.Plan(b.Env)
	if err != nil {
		return err
	}
	for _, step := range steps {
		b.reporter().Step(tool, step.Describe)
		if err := b.runStep(ctx, step); err != nil {
			return fmt.Errorf("%s: %w", step.Describe, err)
		}
	}
	return nil
}

func (b *Batch) runStep(ctx context.Context, step Step) error {
	if step.Command != nil {
		c := *step.Command
		if c.Timeout == 0 {
			c.Timeout = b.Timeout
		}
		return runner.Do(ctx, b.Runner, c)
	}
	if step.Action != nil {
		return step.Action(ctx)
	}
	return nil
}

// Method describes how a tool is installed, for state records.
func Method(tool catalog.Tool, pm platform.PackageManager) (method, pkg string) {
	if tool.Kind == catalog.KindScript {
		return "script:" + string(tool.Strategy), ""
	}
	return pm.String(), tool.PackageName(pm)
}
