// Package aitermy installs the AiTermy terminal assistant from git.
package aitermy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/zappy/internal/runner"
)

const (
	RepoURL    = "https://github.com/KristjanPikhof/AiTermy.git"
	DefaultDir = "/opt/aitermy"
)

var (
	ErrNotInstalled = errors.New("aitermy is not installed")
	ErrMissingTool  = errors.New("missing prerequisite")
)

// Prerequisites must be on PATH before cloning.
var Prerequisites = []string{"git", "python3"}

type Manager struct {
	Runner runner.Runner
	Dir    string
	Home   string
}

func New(r runner.Runner, dir string) *Manager {
	if dir == "" {
		dir = DefaultDir
	}
	home, _ := os.UserHomeDir()
	return &Manager{Runner: r, Dir: dir, Home: home}
}

func (m *Manager) installer() string {
	return filepath.Join(m.Dir, "install.sh")
}

func (m *Manager) Installed(ctx context.Context) bool {
	return runner.Exists(ctx, m.Runner, m.installer())
}

// Configured reports whether a shell rc file loads the assistant.
func (m *Manager) Configured() bool {
	for _, rc := range []string{".zshrc", ".bashrc"} {
		data, err := os.ReadFile(filepath.Join(m.Home, rc))
		if err != nil {
			continue
		}
		s := string(data)
		if strings.Contains(strings.ToLower(s), "aitermy") || strings.Contains(s, "ai()") {
			return true
		}
	}
	return false
}

// Missing returns the prerequisites absent from PATH.
func (m *Manager) Missing() []string {
	var out []string
	for _, p := range Prerequisites {
		if !m.Runner.LookPath(p) {
			out = append(out, p)
		}
	}
	return out
}

// Clone fetches the repository into Dir.
func (m *Manager) Clone(ctx context.Context) error {
	if missing := m.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingTool, strings.Join(missing, ", "))
	}
	if err := runner.MakeDir(ctx, m.Runner, filepath.Dir(m.Dir)); err != nil {
		return err
	}
	return runner.Do(ctx, m.Runner, runner.Sudo("git", "clone", RepoURL, m.Dir))
}

// RunInstaller runs install.sh attached to the terminal; it prompts for
// an API key and model.
func (m *Manager) RunInstaller(ctx context.Context) error {
	if !m.Installed(ctx) {
		return ErrNotInstalled
	}
	m.Runner.Run(ctx, runner.Sudo("chmod", "+x", m.installer()))
	return runner.Do(ctx, m.Runner, runner.Command{
		Argv:        []string{"bash", m.installer()},
		Dir:         m.Dir,
		Interactive: true,
	})
}

func (m *Manager) Update(ctx context.Context) error {
	if !m.Installed(ctx) {
		return ErrNotInstalled
	}
	return runner.Do(ctx, m.Runner, runner.Sudo("git", "-C", m.Dir, "pull"))
}

// LastCommit returns "<short hash> <subject>" of the checkout.
func (m *Manager) LastCommit(ctx context.Context) string {
	res := m.Runner.Run(ctx, runner.Cmd("git", "-C", m.Dir, "log", "-1", "--format=%h %s"))
	if !res.OK() {
		return ""
	}
	return res.Output()
}

// Uninstall removes the checkout. Shell rc lines are left for the user.
func (m *Manager) Uninstall(ctx context.Context) error {
	if !m.Installed(ctx) {
		return ErrNotInstalled
	}
	return runner.Do(ctx, m.Runner, runner.Sudo("rm", "-rf", m.Dir))
}
