// Package shell sets up zsh with oh-my-zsh for the invoking user.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
)

const OhMyZshURL = "https://raw.githubusercontent.com/ohmyzsh/ohmyzsh/master/tools/install.sh"

var ErrNoUser = errors.New("cannot determine the user to change the shell for")

// Plugin is a recommended oh-my-zsh plugin.
type Plugin struct {
	Name     string
	Summary  string
	External bool
}

var Plugins = []Plugin{
	{Name: "git", Summary: "Git aliases and completions"},
	{Name: "docker", Summary: "Docker completions"},
	{Name: "docker-compose", Summary: "Docker Compose completions"},
	{Name: "sudo", Summary: "Press ESC twice to add sudo"},
	{Name: "history", Summary: "History search shortcuts"},
	{Name: "zsh-autosuggestions", Summary: "Fish-like suggestions", External: true},
	{Name: "zsh-syntax-highlighting", Summary: "Syntax colors", External: true},
}

// Status describes the user's shell setup.
type Status struct {
	Current    string
	ZshVersion string // empty when zsh is missing
	OhMyZsh    bool
	Theme      string
}

type Manager struct {
	Runner   runner.Runner
	Platform platform.Descriptor
	Home     string
	User     string
	Shell    string // login shell from $SHELL
}

// New reads the user, home and shell from the environment.
func New(r runner.Runner, p platform.Descriptor) *Manager {
	home, _ := os.UserHomeDir()
	user := os.Getenv("SUDO_USER")
	if user == "" {
		user = os.Getenv("USER")
	}
	return &Manager{Runner: r, Platform: p, Home: home, User: user, Shell: os.Getenv("SHELL")}
}

func (m *Manager) ZshInstalled() bool {
	return m.Runner.LookPath("zsh")
}

func (m *Manager) OhMyZshInstalled() bool {
	_, err := os.Stat(filepath.Join(m.Home, ".oh-my-zsh"))
	return err == nil
}

// ZshIsDefault reports whether the login shell is already zsh.
func (m *Manager) ZshIsDefault() bool {
	return strings.Contains(m.Shell, "zsh")
}

func (m *Manager) InstallZsh(ctx context.Context) error {
	if err := m.Platform.Install(ctx, m.Runner, "zsh"); err != nil {
		return fmt.Errorf("installing zsh: %w", err)
	}
	return nil
}

// InstallOhMyZsh runs the upstream installer as the current user without
// letting it switch shells or start zsh.
func (m *Manager) InstallOhMyZsh(ctx context.Context) error {
	c := runner.Shell(fmt.Sprintf(`RUNZSH=no CHSH=no sh -c "$(curl -fsSL %s)"`, OhMyZshURL))
	c.Dir = m.Home
	res := m.Runner.Run(ctx, c)
	if res.OK() || m.OhMyZshInstalled() {
		return nil
	}
	return &runner.Error{Command: c, Result: res}
}

// SetDefault makes zsh the login shell of m.User.
func (m *Manager) SetDefault(ctx context.Context) (string, error) {
	if m.User == "" {
		return "", ErrNoUser
	}
	path := "/bin/zsh"
	if out := m.Runner.Run(ctx, runner.Cmd("which", "zsh")).Output(); out != "" {
		path = out
	}
	return path, runner.Do(ctx, m.Runner, runner.Sudo("chsh", "-s", path, m.User))
}

func (m *Manager) Status(ctx context.Context) Status {
	st := Status{Current: m.Shell, OhMyZsh: m.OhMyZshInstalled()}
	if st.Current == "" {
		st.Current = "unknown"
	}
	if m.ZshInstalled() {
		st.ZshVersion = m.Runner.Run(ctx, runner.Cmd("zsh", "--version")).Output()
	}
	if st.OhMyZsh {
		if f, err := os.Open(filepath.Join(m.Home, ".zshrc")); err == nil {
			st.Theme = Theme(f)
			f.Close()
		}
	}
	return st
}

// Theme returns the ZSH_THEME value from a .zshrc.
func Theme(r io.Reader) string {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "ZSH_THEME="); ok {
			return strings.Trim(strings.TrimSpace(v), `"'`)
		}
	}
	return ""
}
