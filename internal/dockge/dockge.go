// Package dockge installs and controls the Dockge compose-stack manager.
package dockge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/msalah0e/zappy/internal/runner"
)

const (
	DefaultPort      = "5001"
	DefaultDir       = "/opt/dockge"
	DefaultStacksDir = "/opt/stacks"
	Image            = "louislam/dockge:1"

	containerPort = "5001"
	composeURL    = "https://dockge.kuma.pet/compose.yaml"
)

var (
	ErrNotInstalled = errors.New("dockge is not installed")
	ErrNoDocker     = errors.New("docker is not installed")
)

// Compose is the subset of a compose file Dockge needs.
type Compose struct {
	Version  string             `yaml:"version,omitempty"`
	Services map[string]Service `yaml:"services"`
}

type Service struct {
	Image         string   `yaml:"image"`
	ContainerName string   `yaml:"container_name,omitempty"`
	Restart       string   `yaml:"restart,omitempty"`
	Ports         []string `yaml:"ports,omitempty"`
	Volumes       []string `yaml:"volumes,omitempty"`
	Environment   []string `yaml:"environment,omitempty"`
}

// GenerateCompose builds the fallback compose file used when the upstream
// generator is unreachable.
func GenerateCompose(port, stacksDir string) ([]byte, error) {
	c := Compose{
		Version: "3.8",
		Services: map[string]Service{
			"dockge": {
				Image:         Image,
				ContainerName: "dockge",
				Restart:       "unless-stopped",
				Ports:         []string{port + ":" + containerPort},
				Volumes: []string{
					"/var/run/docker.sock:/var/run/docker.sock",
					"./data:/app/data",
					stacksDir + ":" + stacksDir,
				},
				Environment: []string{"DOCKGE_STACKS_DIR=" + stacksDir},
			},
		},
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParsePort returns the host port mapped to Dockge's container port,
// or DefaultPort when none is found.
func ParsePort(data []byte) string {
	var c Compose
	if err := yaml.Unmarshal(data, &c); err != nil {
		return DefaultPort
	}
	for _, svc := range c.Services {
		for _, p := range svc.Ports {
			parts := strings.Split(strings.Trim(p, `"`), ":")
			if len(parts) >= 2 && parts[len(parts)-1] == containerPort {
				return parts[len(parts)-2]
			}
		}
	}
	return DefaultPort
}

// Manager runs Dockge from a compose file under Dir.
type Manager struct {
	Runner    runner.Runner
	Dir       string
	StacksDir string
}

func New(r runner.Runner, dir, stacks string) *Manager {
	if dir == "" {
		dir = DefaultDir
	}
	if stacks == "" {
		stacks = DefaultStacksDir
	}
	return &Manager{Runner: r, Dir: dir, StacksDir: stacks}
}

func (m *Manager) ComposePath() string {
	return filepath.Join(m.Dir, "compose.yaml")
}

func (m *Manager) Installed(ctx context.Context) bool {
	return runner.Exists(ctx, m.Runner, m.ComposePath())
}

func (m *Manager) Running(ctx context.Context) bool {
	if !m.Runner.LookPath("docker") {
		return false
	}
	res := m.Runner.Run(ctx, runner.Sudo("docker", "ps", "--filter", "name=dockge", "--format", "{{.Names}}"))
	return res.OK() && strings.Contains(res.Stdout, "dockge")
}

func (m *Manager) compose(args ...string) runner.Command {
	return runner.Sudo(append([]string{"docker", "compose", "-f", m.ComposePath()}, args...)...)
}

// Install writes the compose file and starts the stack. An empty port or
// stacks directory takes the defaults. The returned bool reports whether
// the generated fallback compose file was used.
func (m *Manager) Install(ctx context.Context, port, stacksDir string) (bool, error) {
	if !m.Runner.LookPath("docker") {
		return false, ErrNoDocker
	}
	if port == "" {
		port = DefaultPort
	}
	if stacksDir == "" {
		stacksDir = m.StacksDir
	}
	for _, dir := range []string{m.Dir, stacksDir} {
		if err := runner.MakeDir(ctx, m.Runner, dir); err != nil {
			return false, err
		}
	}

	fallback := false
	q := url.Values{"port": {port}, "stacksPath": {stacksDir}}
	fetch := runner.Sudo("curl", "-fsSL", composeURL+"?"+q.Encode(), "-o", m.ComposePath())
	if !m.Runner.Run(ctx, fetch).OK() {
		fallback = true
		data, err := GenerateCompose(port, stacksDir)
		if err != nil {
			return fallback, err
		}
		if err := runner.WriteFile(ctx, m.Runner, m.ComposePath(), string(data)); err != nil {
			return fallback, fmt.Errorf("creating compose.yaml: %w", err)
		}
	}
	return fallback, runner.Do(ctx, m.Runner, m.compose("up", "-d"))
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.Installed(ctx) {
		return ErrNotInstalled
	}
	return runner.Do(ctx, m.Runner, m.compose("up", "-d"))
}

func (m *Manager) Stop(ctx context.Context) error {
	if !m.Installed(ctx) {
		return ErrNotInstalled
	}
	return runner.Do(ctx, m.Runner, m.compose("down"))
}

// Update pulls the latest image and recreates the container.
func (m *Manager) Update(ctx context.Context) error {
	if !m.Installed(ctx) {
		return ErrNotInstalled
	}
	m.Runner.Run(ctx, m.compose("pull"))
	return runner.Do(ctx, m.Runner, m.compose("up", "-d"))
}

// Uninstall stops Dockge and removes its container and image. Stacks are
// never touched; the Dockge directory is removed only when removeData is set.
func (m *Manager) Uninstall(ctx context.Context, removeData bool) error {
	if !m.Installed(ctx) {
		return ErrNotInstalled
	}
	m.Runner.Run(ctx, m.compose("down"))
	m.Runner.Run(ctx, runner.Sudo("docker", "rm", "dockge"))
	m.Runner.Run(ctx, runner.Sudo("docker", "rmi", Image))
	if removeData {
		return runner.Do(ctx, m.Runner, runner.Sudo("rm", "-rf", m.Dir))
	}
	return nil
}

// Port reads the published port from the installed compose file.
func (m *Manager) Port(ctx context.Context) string {
	data, err := runner.ReadFile(ctx, m.Runner, m.ComposePath())
	if err != nil {
		return DefaultPort
	}
	return ParsePort([]byte(data))
}
