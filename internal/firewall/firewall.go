// Package firewall drives ufw or firewalld, whichever the host uses.
package firewall

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msalah0e/zappy/internal/runner"
)

var ErrNoFirewall = errors.New("no supported firewall found (install ufw or firewalld)")

// Kind is the firewall front end in use.
type Kind int

const (
	None Kind = iota
	UFW
	Firewalld
)

func (k Kind) String() string {
	switch k {
	case UFW:
		return "ufw"
	case Firewalld:
		return "firewalld"
	}
	return "none"
}

// Protocol selects which transport a port rule covers.
type Protocol int

const (
	TCP Protocol = iota
	UDP
	Both
)

func (p Protocol) suffixes() []string {
	switch p {
	case UDP:
		return []string{"udp"}
	case Both:
		return []string{"tcp", "udp"}
	}
	return []string{"tcp"}
}

// Service is a well-known service that can be allowed by name.
type Service struct {
	Label string
	Name  string
	Port  int
}

// Services lists the services offered by AllowService.
var Services = []Service{
	{"SSH", "ssh", 22},
	{"HTTP", "http", 80},
	{"HTTPS", "https", 443},
	{"MySQL", "mysql", 3306},
	{"PostgreSQL", "postgresql", 5432},
}

// Manager operates the detected firewall.
type Manager struct {
	Runner runner.Runner
	kind   *Kind
}

// Kind detects the firewall once: an active ufw wins, then a running
// firewalld, then whichever is installed.
func (m *Manager) Kind(ctx context.Context) Kind {
	if m.kind != nil {
		return *m.kind
	}
	k := m.detect(ctx)
	m.kind = &k
	return k
}

func (m *Manager) detect(ctx context.Context) Kind {
	hasUFW := m.Runner.LookPath("ufw")
	hasFirewalld := m.Runner.LookPath("firewall-cmd")

	if hasUFW {
		res := m.Runner.Run(ctx, runner.Sudo("ufw", "status"))
		if UFWActive(res.Stdout) {
			return UFW
		}
	}
	if hasFirewalld {
		if FirewalldRunning(m.Runner.Run(ctx, runner.Sudo("firewall-cmd", "--state")).Stdout) {
			return Firewalld
		}
	}
	switch {
	case hasUFW:
		return UFW
	case hasFirewalld:
		return Firewalld
	}
	return None
}

// FirewalldRunning reads `firewall-cmd --state` output, which is exactly
// "running" or "not running".
func FirewalldRunning(out string) bool {
	return strings.EqualFold(strings.TrimSpace(out), "running")
}

// UFWActive reads `ufw status` output. "Status: inactive" also contains
// the word "active", so the whole status line is compared.
func UFWActive(out string) bool {
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && strings.EqualFold(key, "status") {
			return strings.EqualFold(strings.TrimSpace(value), "active")
		}
	}
	return false
}

func (m *Manager) require(ctx context.Context) (Kind, error) {
	k := m.Kind(ctx)
	if k == None {
		return None, ErrNoFirewall
	}
	return k, nil
}

// Status returns the verbose status listing.
func (m *Manager) Status(ctx context.Context) (string, error) {
	k, err := m.require(ctx)
	if err != nil {
		return "", err
	}
	c := runner.Sudo("ufw", "status", "verbose")
	if k == Firewalld {
		c = runner.Sudo("firewall-cmd", "--list-all")
	}
	res := m.Runner.Run(ctx, c)
	if !res.OK() {
		return res.Combined(), &runner.Error{Command: c, Result: res}
	}
	return res.Stdout, nil
}

// Enable turns the firewall on. With ufw, SSH is allowed first so the
// current session survives.
func (m *Manager) Enable(ctx context.Context) error {
	k, err := m.require(ctx)
	if err != nil {
		return err
	}
	if k == UFW {
		_ = runner.Do(ctx, m.Runner, runner.Sudo("ufw", "allow", "ssh"))
		return runner.Do(ctx, m.Runner, runner.Sudo("ufw", "--force", "enable"))
	}
	return runner.Do(ctx, m.Runner, runner.Sudo("systemctl", "enable", "--now", "firewalld"))
}

// Disable turns the firewall off.
func (m *Manager) Disable(ctx context.Context) error {
	k, err := m.require(ctx)
	if err != nil {
		return err
	}
	if k == UFW {
		return runner.Do(ctx, m.Runner, runner.Sudo("ufw", "disable"))
	}
	return runner.Do(ctx, m.Runner, runner.Sudo("systemctl", "disable", "--now", "firewalld"))
}

// OpenPort allows inbound traffic on port.
func (m *Manager) OpenPort(ctx context.Context, port int, proto Protocol) error {
	return m.portRule(ctx, port, proto, true)
}

// ClosePort removes a rule added by OpenPort.
func (m *Manager) ClosePort(ctx context.Context, port int, proto Protocol) error {
	return m.portRule(ctx, port, proto, false)
}

func (m *Manager) portRule(ctx context.Context, port int, proto Protocol, open bool) error {
	k, err := m.require(ctx)
	if err != nil {
		return err
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	var errs []error
	for _, p := range proto.suffixes() {
		spec := fmt.Sprintf("%d/%s", port, p)
		var c runner.Command
		switch {
		case k == UFW && open:
			c = runner.Sudo("ufw", "allow", spec)
		case k == UFW:
			c = runner.Sudo("ufw", "delete", "allow", spec)
		case open:
			c = runner.Sudo("firewall-cmd", "--add-port", spec, "--permanent")
		default:
			c = runner.Sudo("firewall-cmd", "--remove-port", spec, "--permanent")
		}
		if err := runner.Do(ctx, m.Runner, c); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if k == Firewalld {
		return m.reload(ctx)
	}
	return nil
}

// AllowService allows a service by its well-known name.
func (m *Manager) AllowService(ctx context.Context, name string) error {
	k, err := m.require(ctx)
	if err != nil {
		return err
	}
	if k == UFW {
		return runner.Do(ctx, m.Runner, runner.Sudo("ufw", "allow", name))
	}
	if err := runner.Do(ctx, m.Runner, runner.Sudo("firewall-cmd", "--add-service", name, "--permanent")); err != nil {
		return err
	}
	return m.reload(ctx)
}

func (m *Manager) reload(ctx context.Context) error {
	return runner.Do(ctx, m.Runner, runner.Sudo("firewall-cmd", "--reload"))
}

// Rules returns the numbered rule list for ufw, or services and ports
// for firewalld.
func (m *Manager) Rules(ctx context.Context) (string, error) {
	k, err := m.require(ctx)
	if err != nil {
		return "", err
	}
	if k == UFW {
		res := m.Runner.Run(ctx, runner.Sudo("ufw", "status", "numbered"))
		return res.Stdout, nil
	}
	services := m.Runner.Run(ctx, runner.Sudo("firewall-cmd", "--list-services"))
	ports := m.Runner.Run(ctx, runner.Sudo("firewall-cmd", "--list-ports"))
	return fmt.Sprintf("Services: %s\nPorts: %s\n",
		strings.TrimSpace(services.Stdout), strings.TrimSpace(ports.Stdout)), nil
}
