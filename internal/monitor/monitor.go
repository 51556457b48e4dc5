// Package monitor gathers read-only system status: resources, services,
// network and logs.
package monitor

import (
	"context"
	"strings"

	"github.com/msalah0e/zappy/internal/parallel"
	"github.com/msalah0e/zappy/internal/runner"
)

// Section is a titled block of command output.
type Section struct {
	Title string
	Body  string
}

type Monitor struct {
	Runner      runner.Runner
	NginxLogDir string
}

func New(r runner.Runner, nginxLogDir string) *Monitor {
	if nginxLogDir == "" {
		nginxLogDir = "/var/log/nginx"
	}
	return &Monitor{Runner: r, NginxLogDir: nginxLogDir}
}

func (m *Monitor) out(ctx context.Context, c runner.Command) string {
	return m.Runner.Run(ctx, c).Output()
}

// Resources reports CPU, memory, root disk and load.
func (m *Monitor) Resources(ctx context.Context) []Section {
	return []Section{
		{"CPU Usage", m.out(ctx, runner.Shell("top -bn1 | head -5"))},
		{"Memory Usage", m.out(ctx, runner.Cmd("free", "-h"))},
		{"Disk Usage", m.out(ctx, runner.Cmd("df", "-h", "/"))},
		{"Load Average", m.out(ctx, runner.Cmd("uptime"))},
	}
}

func listUnits(state string) runner.Command {
	return runner.Sudo("systemctl", "list-units", "--type=service", "--state="+state, "--no-pager")
}

// Services lists running service units.
func (m *Monitor) Services(ctx context.Context) string {
	return m.out(ctx, listUnits("running"))
}

// FailedServices lists failed units; the bool is true when there are none.
func (m *Monitor) FailedServices(ctx context.Context) (string, bool) {
	out := m.out(ctx, listUnits("failed"))
	if out == "" || strings.Contains(out, "0 loaded units") {
		return "", true
	}
	return out, false
}

// Network reports listening sockets, a socket summary and addresses.
func (m *Monitor) Network(ctx context.Context) []Section {
	return []Section{
		{"Listening Ports", m.out(ctx, runner.Sudo("ss", "-tlnp"))},
		{"Connection Summary", m.out(ctx, runner.Shell("ss -s | head -10"))},
		{"IP Addresses", m.out(ctx, runner.Cmd("hostname", "-I"))},
	}
}

// LogKind selects a log source.
type LogKind int

const (
	SystemLog LogKind = iota
	NginxLog
	AuthLog
	KernelLog
)

var LogKinds = []LogKind{SystemLog, NginxLog, AuthLog, KernelLog}

func (k LogKind) String() string {
	switch k {
	case SystemLog:
		return "System logs (last 50 lines)"
	case NginxLog:
		return "Nginx logs (last 50 lines)"
	case AuthLog:
		return "SSH auth logs (last 50 lines)"
	case KernelLog:
		return "Kernel messages (dmesg)"
	}
	return "unknown"
}

// authLogs are tried in order before falling back to the journal.
var authLogs = []string{"/var/log/auth.log", "/var/log/secure"}

// Logs returns recent entries for one source.
func (m *Monitor) Logs(ctx context.Context, kind LogKind) []Section {
	switch kind {
	case NginxLog:
		return []Section{
			{"Access Log", orNone(m.out(ctx, runner.Sudo("tail", "-20", m.NginxLogDir+"/access.log")), "No access log entries")},
			{"Error Log", orNone(m.out(ctx, runner.Sudo("tail", "-20", m.NginxLogDir+"/error.log")), "No error log entries")},
		}
	case AuthLog:
		for _, path := range authLogs {
			res := m.Runner.Run(ctx, runner.Sudo("tail", "-50", path))
			if res.OK() && res.Output() != "" {
				return []Section{{path, res.Output()}}
			}
		}
		return []Section{{"journalctl -u sshd", m.out(ctx, runner.Sudo("journalctl", "-u", "sshd", "-n", "50", "--no-pager"))}}
	case KernelLog:
		c := runner.Shell("dmesg --time-format=reltime | tail -50")
		c.Elevate = true
		return []Section{{"Kernel Messages", m.out(ctx, c)}}
	}
	return []Section{{"System Logs", m.out(ctx, runner.Sudo("journalctl", "-n", "50", "--no-pager"))}}
}

func orNone(s, none string) string {
	if s == "" {
		return none
	}
	return s
}

// DefaultUnits are the services the overview probes.
var DefaultUnits = []string{
	"nginx", "docker", "ufw", "firewalld", "fail2ban",
	"ssh", "sshd", "unattended-upgrades", "dnf-automatic.timer", "certbot.timer",
}

// UnitState is the `systemctl is-active` answer for one unit.
type UnitState struct {
	Unit  string
	State string
}

func (u UnitState) Active() bool {
	return u.State == "active"
}

// Snapshot is a one-screen summary of the host.
type Snapshot struct {
	Uptime    string
	Load      string
	Memory    string
	Disk      string
	Addresses string
	Units     []UnitState
}

const (
	keyUptime    = "uptime"
	keyLoad      = "load"
	keyMemory    = "memory"
	keyDisk      = "disk"
	keyAddresses = "addresses"
	unitPrefix   = "unit:"
)

// Overview runs every probe concurrently. Units that are not installed
// report "inactive" or "unknown" rather than failing the snapshot.
func (m *Monitor) Overview(ctx context.Context, units []string) Snapshot {
	if len(units) == 0 {
		units = DefaultUnits
	}
	probe := func(c runner.Command) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			return m.Runner.Run(ctx, c).Output(), nil
		}
	}
	tasks := []parallel.Task{
		{Name: keyUptime, Fn: probe(runner.Cmd("uptime", "-p"))},
		{Name: keyLoad, Fn: probe(runner.Cmd("cat", "/proc/loadavg"))},
		{Name: keyMemory, Fn: probe(runner.Shell("free -h | awk '/^Mem:/ {print $3 \" / \" $2}'"))},
		{Name: keyDisk, Fn: probe(runner.Shell("df -h / | awk 'NR==2 {print $3 \" / \" $2 \" (\" $5 \")\"}'"))},
		{Name: keyAddresses, Fn: probe(runner.Cmd("hostname", "-I"))},
	}
	for _, u := range units {
		tasks = append(tasks, parallel.Task{Name: unitPrefix + u, Fn: probe(runner.Cmd("systemctl", "is-active", u))})
	}

	out := parallel.Outputs(parallel.Run(ctx, tasks, 8))
	s := Snapshot{
		Uptime:    out[keyUptime],
		Load:      loadAverage(out[keyLoad]),
		Memory:    out[keyMemory],
		Disk:      out[keyDisk],
		Addresses: out[keyAddresses],
	}
	for _, u := range units {
		state := strings.TrimSpace(out[unitPrefix+u])
		if state == "" {
			state = "unknown"
		}
		s.Units = append(s.Units, UnitState{Unit: u, State: state})
	}
	return s
}

// loadAverage keeps the three load figures from /proc/loadavg.
func loadAverage(s string) string {
	f := strings.Fields(s)
	if len(f) < 3 {
		return s
	}
	return strings.Join(f[:3], " ")
}
