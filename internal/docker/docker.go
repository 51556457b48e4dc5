// Package docker installs Docker Engine from the upstream repositories
// and reports on the daemon.
package docker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
)

// ErrUnsupported is returned for distributions without an upstream repository.
var ErrUnsupported = errors.New("unsupported distribution; see https://docs.docker.com/engine/install/")

const (
	keyringDir   = "/etc/apt/keyrings"
	keyringPath  = "/etc/apt/keyrings/docker.gpg"
	repoListPath = "/etc/apt/sources.list.d/docker.list"
)

// Packages installed from the Docker CE repository.
var Packages = []string{
	"docker-ce", "docker-ce-cli", "containerd.io",
	"docker-buildx-plugin", "docker-compose-plugin",
}

var (
	debianLegacy = []string{"docker", "docker-engine", "docker.io", "containerd", "runc"}
	rhelLegacy   = []string{
		"docker", "docker-client", "docker-client-latest",
		"docker-common", "docker-latest", "docker-latest-logrotate",
		"docker-logrotate", "docker-engine",
	}
)

// Manager installs and inspects Docker.
type Manager struct {
	Runner   runner.Runner
	Platform platform.Descriptor
	// User is added to the docker group after install. Empty skips it.
	User string
}

// New returns a Manager that adds the invoking user to the docker group.
func New(r runner.Runner, p platform.Descriptor) *Manager {
	user := os.Getenv("SUDO_USER")
	if user == "" {
		user = os.Getenv("USER")
	}
	return &Manager{Runner: r, Platform: p, User: user}
}

func (m *Manager) Installed() bool {
	return m.Runner.LookPath("docker")
}

// Running reports whether the daemon answers, trying without sudo first
// since group membership only applies after a new login.
func (m *Manager) Running(ctx context.Context) bool {
	if m.Runner.Run(ctx, runner.Cmd("docker", "info")).OK() {
		return true
	}
	return m.Runner.Run(ctx, runner.Sudo("docker", "info")).OK()
}

// Install adds the upstream repository for the host family, installs the
// engine and runs the post-install steps.
func (m *Manager) Install(ctx context.Context) error {
	var err error
	switch m.Platform.Family() {
	case platform.Debian:
		err = m.installDebian(ctx)
	case platform.RHEL:
		err = m.installRHEL(ctx)
	case platform.Arch:
		err = runner.Do(ctx, m.Runner, runner.Sudo("pacman", "-S", "--noconfirm", "docker", "docker-compose"))
	default:
		return ErrUnsupported
	}
	if err != nil {
		return err
	}
	return m.postInstall(ctx)
}

// RepoURL returns the apt repository base for the distribution.
func RepoURL(id string) string {
	if id == "ubuntu" {
		return "https://download.docker.com/linux/ubuntu"
	}
	return "https://download.docker.com/linux/debian"
}

// RepoLine renders the docker.list entry.
func RepoLine(arch, repoURL, codename string) string {
	return fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s stable", arch, keyringPath, repoURL, codename)
}

func (m *Manager) installDebian(ctx context.Context) error {
	m.Runner.Run(ctx, runner.Sudo(append([]string{"apt", "remove", "-y"}, debianLegacy...)...))

	if err := runner.Do(ctx, m.Runner, runner.Sudo("apt", "install", "-y", "ca-certificates", "curl", "gnupg", "lsb-release")); err != nil {
		return fmt.Errorf("installing prerequisites: %w", err)
	}
	if err := runner.MakeDir(ctx, m.Runner, keyringDir); err != nil {
		return err
	}

	repo := RepoURL(m.Platform.ID)
	key := runner.Shell(fmt.Sprintf("curl -fsSL %s/gpg | gpg --dearmor --yes -o %s", repo, keyringPath))
	key.Elevate = true
	if err := runner.Do(ctx, m.Runner, key); err != nil {
		return fmt.Errorf("adding Docker GPG key: %w", err)
	}
	m.Runner.Run(ctx, runner.Sudo("chmod", "a+r", keyringPath))

	arch := m.Runner.Run(ctx, runner.Cmd("dpkg", "--print-architecture")).Output()
	if arch == "" {
		arch = "amd64"
	}
	codename := m.Platform.Codename
	if codename == "" {
		codename = m.Runner.Run(ctx, runner.Shell(". /etc/os-release && echo $VERSION_CODENAME")).Output()
	}
	if err := runner.WriteFile(ctx, m.Runner, repoListPath, RepoLine(arch, repo, codename)+"\n"); err != nil {
		return err
	}

	if err := m.Platform.UpdateIndex(ctx, m.Runner); err != nil {
		return err
	}
	return m.Platform.Install(ctx, m.Runner, Packages...)
}

// RHELRepo returns the dnf repository file for the distribution.
func RHELRepo(id string) string {
	if id == "fedora" {
		return "https://download.docker.com/linux/fedora/docker-ce.repo"
	}
	return "https://download.docker.com/linux/centos/docker-ce.repo"
}

func (m *Manager) installRHEL(ctx context.Context) error {
	m.Runner.Run(ctx, runner.Sudo(append([]string{"dnf", "remove", "-y"}, rhelLegacy...)...))
	m.Runner.Run(ctx, runner.Sudo("dnf", "install", "-y", "dnf-plugins-core"))

	if err := runner.Do(ctx, m.Runner, runner.Sudo("dnf", "config-manager", "--add-repo", RHELRepo(m.Platform.ID))); err != nil {
		return fmt.Errorf("adding Docker repository: %w", err)
	}
	return runner.Do(ctx, m.Runner, runner.Sudo(append([]string{"dnf", "install", "-y"}, Packages...)...))
}

func (m *Manager) postInstall(ctx context.Context) error {
	if err := runner.Sequence(ctx, m.Runner,
		runner.Sudo("systemctl", "enable", "docker"),
		runner.Sudo("systemctl", "start", "docker"),
	); err != nil {
		return err
	}
	if m.User != "" && m.User != "root" {
		return runner.Do(ctx, m.Runner, runner.Sudo("usermod", "-aG", "docker", m.User))
	}
	return nil
}

// Versions returns the engine and compose plugin versions.
func (m *Manager) Versions(ctx context.Context) (engine, compose string) {
	engine = m.Runner.Run(ctx, runner.Cmd("docker", "--version")).Output()
	compose = m.Runner.Run(ctx, runner.Cmd("docker", "compose", "version")).Output()
	return engine, compose
}

// Status returns the service state and the running containers.
func (m *Manager) Status(ctx context.Context) (service, containers string) {
	service = m.Runner.Run(ctx, runner.Sudo("systemctl", "status", "docker", "--no-pager", "-l")).Combined()
	res := m.Runner.Run(ctx, runner.Cmd("docker", "ps"))
	if !res.OK() {
		res = m.Runner.Run(ctx, runner.Sudo("docker", "ps"))
	}
	return service, res.Combined()
}

// Info returns `docker info`.
func (m *Manager) Info(ctx context.Context) (string, error) {
	c := runner.Sudo("docker", "info")
	res := m.Runner.Run(ctx, c)
	if !res.OK() {
		return "", &runner.Error{Command: c, Result: res}
	}
	return strings.TrimRight(res.Stdout, "\n"), nil
}
