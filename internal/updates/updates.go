// Package updates configures unattended security updates:
// unattended-upgrades on Debian-family hosts and dnf-automatic on
// RHEL-family hosts.
package updates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
)

// ErrUnsupported covers Arch, Alpine and unknown distributions.
var ErrUnsupported = errors.New("automatic updates are only supported on Debian and RHEL based systems")

const (
	UnattendedPath   = "/etc/apt/apt.conf.d/50unattended-upgrades"
	AutoUpgradePath  = "/etc/apt/apt.conf.d/20auto-upgrades"
	DNFAutomaticPath = "/etc/dnf/automatic.conf"
	unattendedLog    = "/var/log/unattended-upgrades/unattended-upgrades.log"
)

const unattendedConf = `// Managed by zappy
Unattended-Upgrade::Allowed-Origins {
    "${distro_id}:${distro_codename}";
    "${distro_id}:${distro_codename}-security";
    "${distro_id}ESMApps:${distro_codename}-apps-security";
    "${distro_id}ESM:${distro_codename}-infra-security";
};

// Remove unused automatically installed kernel-related packages
Unattended-Upgrade::Remove-Unused-Kernel-Packages "true";

// Remove unused dependencies
Unattended-Upgrade::Remove-Unused-Dependencies "true";

// Automatically reboot if required
Unattended-Upgrade::Automatic-Reboot "false";

// If automatic reboot is enabled, reboot at this time
Unattended-Upgrade::Automatic-Reboot-Time "02:00";
`

const autoUpgradesConf = `APT::Periodic::Update-Package-Lists "1";
APT::Periodic::Unattended-Upgrade "1";
APT::Periodic::AutocleanInterval "7";
`

const dnfAutomaticConf = `# Managed by zappy
[commands]
upgrade_type = security
random_sleep = 0
download_updates = yes
apply_updates = yes

[emitters]
emit_via = stdio

[command]
upgrade_cmd = dnf
command_args = -y
`

// Manager configures automatic updates for one platform.
type Manager struct {
	Runner   runner.Runner
	Platform platform.Descriptor
}

// Setup installs and enables the distribution's updater.
func (m *Manager) Setup(ctx context.Context) error {
	switch m.Platform.Family() {
	case platform.Debian:
		return m.setupDebian(ctx)
	case platform.RHEL:
		return m.setupRHEL(ctx)
	}
	return ErrUnsupported
}

func (m *Manager) setupDebian(ctx context.Context) error {
	if err := m.Platform.Install(ctx, m.Runner, "unattended-upgrades"); err != nil {
		return fmt.Errorf("installing unattended-upgrades: %w", err)
	}
	if err := runner.WriteFile(ctx, m.Runner, UnattendedPath, unattendedConf); err != nil {
		return err
	}
	if err := runner.WriteFile(ctx, m.Runner, AutoUpgradePath, autoUpgradesConf); err != nil {
		return err
	}
	return runner.Sequence(ctx, m.Runner,
		runner.Sudo("systemctl", "enable", "unattended-upgrades"),
		runner.Sudo("systemctl", "start", "unattended-upgrades"),
	)
}

func (m *Manager) setupRHEL(ctx context.Context) error {
	if err := m.Platform.Install(ctx, m.Runner, "dnf-automatic"); err != nil {
		return fmt.Errorf("installing dnf-automatic: %w", err)
	}
	if err := runner.WriteFile(ctx, m.Runner, DNFAutomaticPath, dnfAutomaticConf); err != nil {
		return err
	}
	return runner.Sequence(ctx, m.Runner,
		runner.Sudo("systemctl", "enable", "dnf-automatic.timer"),
		runner.Sudo("systemctl", "start", "dnf-automatic.timer"),
	)
}

// Status returns the updater's service state and recent activity.
func (m *Manager) Status(ctx context.Context) (string, error) {
	var cmds []runner.Command
	switch m.Platform.Family() {
	case platform.Debian:
		cmds = []runner.Command{
			runner.Sudo("systemctl", "status", "unattended-upgrades", "--no-pager"),
			runner.Sudo("tail", "-20", unattendedLog),
		}
	case platform.RHEL:
		cmds = []runner.Command{
			runner.Sudo("systemctl", "status", "dnf-automatic.timer", "--no-pager"),
			runner.Sudo("systemctl", "list-timers", "dnf-automatic.timer"),
		}
	default:
		return "", ErrUnsupported
	}
	var parts []string
	for _, c := range cmds {
		if out := m.Runner.Run(ctx, c).Combined(); out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// Check lists pending updates. dnf check-update exits 100 when updates
// exist, which is reported as output rather than failure.
func (m *Manager) Check(ctx context.Context) (string, error) {
	switch m.Platform.Family() {
	case platform.Debian:
		_ = m.Platform.UpdateIndex(ctx, m.Runner)
		res := m.Runner.Run(ctx, runner.Sudo("apt", "list", "--upgradable"))
		return res.Output(), nil
	case platform.RHEL:
		c := runner.Sudo("dnf", "check-update", "--security")
		res := m.Runner.Run(ctx, c)
		if !res.OK() && res.ExitCode != 100 {
			return res.Combined(), &runner.Error{Command: c, Result: res}
		}
		return res.Output(), nil
	}
	return "", ErrUnsupported
}

// Pending counts lines of Check output that name a package.
func Pending(f platform.Family, out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case f == platform.Debian && strings.Contains(line, "[upgradable from"):
			n++
		case f == platform.RHEL && len(strings.Fields(line)) == 3 && !strings.HasPrefix(line, "Last metadata"):
			n++
		}
	}
	return n
}
