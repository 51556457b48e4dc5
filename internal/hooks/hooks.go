// Package hooks runs user-configured shell snippets around installs.
package hooks

import (
	"context"

	"github.com/msalah0e/zappy/internal/config"
	"github.com/msalah0e/zappy/internal/runner"
)

// Phase names a point in the install lifecycle.
type Phase string

const (
	PreInstall  Phase = "pre_install"
	PostInstall Phase = "post_install"
)

// Hooks binds configured scripts to a runner.
type Hooks struct {
	Runner runner.Runner
	Config config.HooksConfig
}

// Run executes the hook for phase, if configured. The script sees
// ZAPPY_TOOL, ZAPPY_PHASE and ZAPPY_KIND in its environment.
func (h *Hooks) Run(ctx context.Context, phase Phase, tool, kind string) error {
	if h == nil {
		return nil
	}
	script := h.script(phase)
	if script == "" {
		return nil
	}

	c := runner.Shell(script)
	c.Env = []string{
		"ZAPPY_TOOL=" + tool,
		"ZAPPY_PHASE=" + string(phase),
		"ZAPPY_KIND=" + kind,
	}
	return runner.Do(ctx, h.Runner, c)
}

func (h *Hooks) script(phase Phase) string {
	switch phase {
	case PreInstall:
		return h.Config.PreInstall
	case PostInstall:
		return h.Config.PostInstall
	default:
		return ""
	}
}
