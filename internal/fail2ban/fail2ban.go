// Package fail2ban installs, configures and queries fail2ban.
package fail2ban

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
)

// ErrUnavailable is returned on Alpine, which does not package fail2ban.
var ErrUnavailable = errors.New("fail2ban is not available on Alpine Linux (consider sshguard)")

// Manager drives fail2ban on one host.
type Manager struct {
	Runner    runner.Runner
	Platform  platform.Descriptor
	JailLocal string
}

// Installed reports whether fail2ban-client is on PATH.
func (m *Manager) Installed() bool {
	return m.Runner.LookPath("fail2ban-client")
}

// Running reports whether the service is active.
func (m *Manager) Running(ctx context.Context) bool {
	return m.Runner.Run(ctx, runner.Sudo("systemctl", "is-active", "fail2ban")).OK()
}

// Install installs the package.
func (m *Manager) Install(ctx context.Context) error {
	if m.Platform.Manager == platform.APK {
		return ErrUnavailable
	}
	if err := m.Platform.Install(ctx, m.Runner, "fail2ban"); err != nil {
		return fmt.Errorf("installing fail2ban: %w", err)
	}
	return nil
}

// JailConfig renders jail.local. The file-based sshd jail is only
// written where the auth log location is known.
func JailConfig(f platform.Family) string {
	var b strings.Builder
	b.WriteString(`# Managed by zappy
[DEFAULT]
# Ban hosts for 1 hour
bantime = 1h

# Find time window (10 minutes)
findtime = 10m

# Max retries before ban
maxretry = 5

# Ignore local IPs
ignoreip = 127.0.0.1/8 ::1
`)
	if logPath := authLog(f); logPath != "" {
		fmt.Fprintf(&b, `
[sshd]
enabled = true
port = ssh
filter = sshd
logpath = %s
maxretry = 3
bantime = 1h
`, logPath)
	}
	b.WriteString(`
[sshd-systemd]
enabled = true
backend = systemd
filter = sshd
maxretry = 3
bantime = 1h
`)
	return b.String()
}

func authLog(f platform.Family) string {
	switch f {
	case platform.Debian:
		return "/var/log/auth.log"
	case platform.RHEL:
		return "/var/log/secure"
	}
	return ""
}

// Configure writes jail.local.
func (m *Manager) Configure(ctx context.Context) error {
	return runner.WriteFile(ctx, m.Runner, m.JailLocal, JailConfig(m.Platform.Family()))
}

// Enable enables the unit and starts it.
func (m *Manager) Enable(ctx context.Context) error {
	return runner.Sequence(ctx, m.Runner,
		runner.Sudo("systemctl", "enable", "fail2ban"),
		runner.Sudo("systemctl", "start", "fail2ban"),
	)
}

// Restart reloads configuration by restarting the service.
func (m *Manager) Restart(ctx context.Context) error {
	return runner.Do(ctx, m.Runner, runner.Sudo("systemctl", "restart", "fail2ban"))
}

// Status returns the service status followed by the jail overview.
func (m *Manager) Status(ctx context.Context) string {
	svc := m.Runner.Run(ctx, runner.Sudo("systemctl", "status", "fail2ban", "--no-pager", "-l"))
	jails := m.Runner.Run(ctx, runner.Sudo("fail2ban-client", "status"))
	return strings.TrimSpace(svc.Combined()) + "\n\n" + strings.TrimSpace(jails.Combined())
}

// Jails returns the active jail names.
func (m *Manager) Jails(ctx context.Context) ([]string, error) {
	res := m.Runner.Run(ctx, runner.Sudo("fail2ban-client", "status"))
	if !res.OK() {
		return nil, fmt.Errorf("listing jails: %s", res.Diagnostic())
	}
	return ParseJails(res.Stdout), nil
}

// ParseJails reads the "Jail list:" line of `fail2ban-client status`.
func ParseJails(out string) []string {
	for _, line := range strings.Split(out, "\n") {
		_, rest, ok := strings.Cut(line, "Jail list:")
		if !ok {
			continue
		}
		var jails []string
		for _, j := range strings.Split(rest, ",") {
			if j = strings.TrimSpace(j); j != "" {
				jails = append(jails, j)
			}
		}
		return jails
	}
	return nil
}

// JailStatus is the ban summary for one jail.
type JailStatus struct {
	Name            string
	CurrentlyBanned int
	TotalBanned     int
	BannedIPs       []string
}

// ParseJailStatus reads `fail2ban-client status <jail>`.
func ParseJailStatus(name, out string) JailStatus {
	js := JailStatus{Name: name}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimLeft(line, " \t|`-")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Currently banned":
			js.CurrentlyBanned, _ = strconv.Atoi(value)
		case "Total banned":
			js.TotalBanned, _ = strconv.Atoi(value)
		case "Banned IP list":
			js.BannedIPs = strings.Fields(value)
		}
	}
	return js
}

// Banned returns the ban summary of every active jail.
func (m *Manager) Banned(ctx context.Context) ([]JailStatus, error) {
	jails, err := m.Jails(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]JailStatus, 0, len(jails))
	for _, j := range jails {
		res := m.Runner.Run(ctx, runner.Sudo("fail2ban-client", "status", j))
		out = append(out, ParseJailStatus(j, res.Stdout))
	}
	return out, nil
}

// Unban removes ip from every jail.
func (m *Manager) Unban(ctx context.Context, ip string) error {
	if err := runner.Do(ctx, m.Runner, runner.Sudo("fail2ban-client", "unban", ip)); err != nil {
		return fmt.Errorf("unbanning %s: %w", ip, err)
	}
	return nil
}
