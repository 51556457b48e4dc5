package installer

import (
	"context"
	"fmt"

	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/runner"
)

// Install script locations.
const (
	NVMInstallURL      = "https://raw.githubusercontent.com/nvm-sh/nvm/v0.40.3/install.sh"
	RustupURL          = "https://sh.rustup.rs"
	HomebrewInstallURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"
	OpencodeInstallURL = "https://opencode.ai/install"
	ClaudeInstallURL   = "https://claude.ai/install.sh"
	NodeMajor          = "24"
)

// Step is one unit of an install recipe: either an external command or an
// in-process action.
type Step struct {
	Describe string
	Command  *runner.Command
	Action   func(ctx context.Context) error
}

// Strategy turns environment facts into an ordered install recipe.
type Strategy interface {
	Plan(env Env) ([]Step, error)
}

// StrategyFor returns the implementation of a named strategy.
func StrategyFor(name catalog.Strategy) (Strategy, error) {
	switch name {
	case catalog.StrategyNVM:
		return nvmStrategy{}, nil
	case catalog.StrategyOpencode:
		return pipeStrategy{describe: "Running opencode installer", script: "curl -fsSL " + OpencodeInstallURL + " | bash"}, nil
	case catalog.StrategyClaude:
		return pipeStrategy{describe: "Running Claude Code installer", script: "curl -fsSL " + ClaudeInstallURL + " | bash"}, nil
	case catalog.StrategyRustup:
		return pipeStrategy{describe: "Running rustup installer", script: "curl --proto '=https' --tlsv1.2 -sSf " + RustupURL + " | sh -s -- -y"}, nil
	case catalog.StrategyHomebrew:
		return pipeStrategy{describe: "Running Homebrew installer", script: `NONINTERACTIVE=1 /bin/bash -c "$(curl -fsSL ` + HomebrewInstallURL + `)"`}, nil
	case catalog.StrategyGoTarball:
		return goTarball{}, nil
	}
	return nil, fmt.Errorf("unknown install strategy %q", name)
}

func bash(script string) *runner.Command {
	c := runner.Cmd("bash", "-c", script)
	return &c
}

// pipeStrategy downloads an installer script and pipes it to a shell.
type pipeStrategy struct {
	describe string
	script   string
}

func (p pipeStrategy) Plan(Env) ([]Step, error) {
	return []Step{{Describe: p.describe, Command: bash(p.script)}}, nil
}

// nvmStrategy installs nvm, then the pinned Node.js major as default.
// With Env.NodeTarball set it installs the release tarball instead.
type nvmStrategy struct{}

func (nvmStrategy) Plan(env Env) ([]Step, error) {
	if env.NodeTarball {
		return nodeTarball{}.Plan(env)
	}
	return []Step{
		{Describe: "Installing nvm", Command: bash("curl -o- " + NVMInstallURL + " | bash")},
		{
			Describe: "Installing Node.js " + NodeMajor,
			Command:  bash(`. "$HOME/.nvm/nvm.sh" && nvm install ` + NodeMajor + ` && nvm alias default ` + NodeMajor),
		},
	}, nil
}
