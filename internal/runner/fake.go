package runner

import (
	"context"
	"strings"
	"sync"
)

// Fake is a scripted Runner for tests. Commands are matched by Line().
// Unmatched commands succeed with empty output.
type Fake struct {
	mu      sync.Mutex
	Calls   []Command
	Results map[string]Result
	Paths   map[string]bool

	// Handler, when set, is consulted before Results.
	Handler func(c Command) (Result, bool)
}

// NewFake returns an empty fake runner.
func NewFake() *Fake {
	return &Fake{
		Results: make(map[string]Result),
		Paths:   make(map[string]bool),
	}
}

// On scripts the result for an exact command line.
func (f *Fake) On(line string, res Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[line] = res
	return f
}

// Fail scripts a non-zero exit for an exact command line.
func (f *Fake) Fail(line string) *Fake {
	return f.On(line, Result{ExitCode: 1})
}

// WithPath marks executables as present for LookPath.
func (f *Fake) WithPath(names ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.Paths[n] = true
	}
	return f
}

func (f *Fake) Run(_ context.Context, c Command) Result {
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	handler := f.Handler
	res, ok := f.Results[c.Line()]
	f.mu.Unlock()

	if handler != nil {
		if hr, handled := handler(c); handled {
			return hr
		}
	}
	if ok {
		return res
	}
	return Result{}
}

func (f *Fake) LookPath(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Paths[name]
}

// Lines returns every command line run so far, in order.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = c.Line()
	}
	return lines
}

// Count returns how many times an exact command line ran.
func (f *Fake) Count(line string) int {
	n := 0
	for _, l := range f.Lines() {
		if l == line {
			n++
		}
	}
	return n
}

// Ran reports whether an exact command line ran.
func (f *Fake) Ran(line string) bool {
	return f.Count(line) > 0
}

// RanPrefix reports whether any command line starts with prefix.
func (f *Fake) RanPrefix(prefix string) bool {
	for _, l := range f.Lines() {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

// Find returns the first recorded command whose line starts with prefix.
func (f *Fake) Find(prefix string) (Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if strings.HasPrefix(c.Line(), prefix) {
			return c, true
		}
	}
	return Command{}, false
}
