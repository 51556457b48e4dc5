// Package sshd reads and patches the OpenSSH server configuration.
package sshd

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/msalah0e/zappy/internal/backup"
	"github.com/msalah0e/zappy/internal/runner"
)

// Setting is one sshd_config directive.
type Setting struct {
	Key   string
	Value string
}

// Hardening is applied by Harden, in this order.
var Hardening = []Setting{
	{"PermitRootLogin", "prohibit-password"},
	{"PubkeyAuthentication", "yes"},
	{"MaxAuthTries", "3"},
	{"ClientAliveInterval", "300"},
	{"ClientAliveCountMax", "2"},
}

// ParseSettings returns the active directives. sshd honours the first
// occurrence of a keyword, so later duplicates are ignored.
func ParseSettings(content string) map[string]string {
	settings := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if _, seen := settings[fields[0]]; !seen {
			settings[fields[0]] = strings.Join(fields[1:], " ")
		}
	}
	return settings
}

// Get returns a directive or the OpenSSH default when it is unset.
func Get(settings map[string]string, key string) string {
	if v, ok := settings[key]; ok {
		return v
	}
	return defaults[key]
}

var defaults = map[string]string{
	"Port":                   "22",
	"PermitRootLogin":        "yes",
	"PasswordAuthentication": "yes",
	"PubkeyAuthentication":   "yes",
}

// Patch sets key to value. Existing lines, commented or not, are
// rewritten in place; otherwise the directive is appended.
func Patch(content, key, value string) string {
	re := regexp.MustCompile(`(?m)^#?[ \t]*` + regexp.QuoteMeta(key) + `[ \t]+.*$`)
	line := key + " " + value
	if re.MatchString(content) {
		return re.ReplaceAllLiteralString(content, line)
	}
	return strings.TrimRight(content, "\n") + "\n" + line + "\n"
}

// Check is one line of the security summary.
type Check struct {
	Label string
	Value string
	Good  bool
}

// Checks summarises the security-relevant directives.
func Checks(settings map[string]string) []Check {
	port := Get(settings, "Port")
	root := Get(settings, "PermitRootLogin")
	password := Get(settings, "PasswordAuthentication")
	pubkey := Get(settings, "PubkeyAuthentication")
	return []Check{
		{"SSH Port", port, port != "22"},
		{"Root Login", root, root == "no" || root == "prohibit-password"},
		{"Password Auth", password, password == "no"},
		{"Public Key Auth", pubkey, pubkey == "yes"},
	}
}

// Recommendations lists advice for every failing check.
func Recommendations(settings map[string]string) []string {
	var out []string
	for _, c := range Checks(settings) {
		if c.Good {
			continue
		}
		switch c.Label {
		case "SSH Port":
			out = append(out, "Consider changing SSH port from default 22")
		case "Root Login":
			out = append(out, "Consider disabling root login")
		case "Password Auth":
			out = append(out, "Consider disabling password authentication")
		case "Public Key Auth":
			out = append(out, "Enable public key authentication")
		}
	}
	return out
}

// Manager edits one sshd_config file.
type Manager struct {
	Runner  runner.Runner
	Backups *backup.Store
	Path    string
}

// Settings reads and parses the config file.
func (m *Manager) Settings(ctx context.Context) (map[string]string, error) {
	content, err := runner.ReadFile(ctx, m.Runner, m.Path)
	if err != nil {
		return nil, err
	}
	return ParseSettings(content), nil
}

// TestError is a failed `sshd -t`; the backup has already been restored.
type TestError struct {
	Output string
}

func (e *TestError) Error() string {
	return "sshd configuration test failed, backup restored: " + e.Output
}

// Apply patches every change into the config after taking a backup, and
// restores the backup if `sshd -t` rejects the result.
func (m *Manager) Apply(ctx context.Context, changes ...Setting) (string, error) {
	content, err := runner.ReadFile(ctx, m.Runner, m.Path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%s is empty", m.Path)
	}

	saved, err := m.Backups.Save(ctx, "ssh", "sshd_config", m.Path)
	if err != nil {
		return "", err
	}

	for _, s := range changes {
		content = Patch(content, s.Key, s.Value)
	}
	if err := runner.WriteFile(ctx, m.Runner, m.Path, content); err != nil {
		return saved, err
	}

	res := m.Runner.Run(ctx, runner.Sudo("sshd", "-t"))
	if !res.OK() {
		if err := m.Backups.Restore(ctx, saved, m.Path); err != nil {
			return saved, fmt.Errorf("sshd -t failed (%s) and restore failed: %w", res.Diagnostic(), err)
		}
		return saved, &TestError{Output: res.Diagnostic()}
	}
	return saved, nil
}

// Harden applies the Hardening directives.
func (m *Manager) Harden(ctx context.Context) (string, error) {
	return m.Apply(ctx, Hardening...)
}

// Restart restarts the SSH service. Debian names the unit "ssh", most
// others "sshd".
func (m *Manager) Restart(ctx context.Context) error {
	err := runner.Do(ctx, m.Runner, runner.Sudo("systemctl", "restart", "sshd"))
	if err == nil {
		return nil
	}
	if runner.Do(ctx, m.Runner, runner.Sudo("systemctl", "restart", "ssh")) == nil {
		return nil
	}
	return fmt.Errorf("restarting ssh: %w", err)
}
