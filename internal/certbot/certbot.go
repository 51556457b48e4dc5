// Package certbot issues and maintains Let's Encrypt certificates for
// nginx sites.
package certbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
)

// Certificate is one entry of `certbot certificates`.
type Certificate struct {
	Name    string
	Domains []string
	Expiry  string
	Path    string
}

// Manager wraps the certbot CLI.
type Manager struct {
	Runner   runner.Runner
	Platform platform.Descriptor
}

// Installed reports whether certbot is on PATH.
func (m *Manager) Installed() bool {
	return m.Runner.LookPath("certbot")
}

// Packages returns certbot and its nginx plugin for the platform.
func Packages(f platform.Family) []string {
	switch f {
	case platform.Arch, platform.Alpine:
		return []string{"certbot", "certbot-nginx"}
	case platform.SUSE:
		return []string{"python3-certbot", "python3-certbot-nginx"}
	}
	return []string{"certbot", "python3-certbot-nginx"}
}

// Install installs certbot with the nginx plugin.
func (m *Manager) Install(ctx context.Context) error {
	return m.Platform.Install(ctx, m.Runner, Packages(m.Platform.Family())...)
}

// IssueError is a failed certificate request.
type IssueError struct {
	Domain string
	Output string
}

func (e *IssueError) Error() string {
	return fmt.Sprintf("certificate request for %s failed: %s", e.Domain, e.Output)
}

// ChallengeFailed reports an ACME challenge failure, which usually
// means DNS does not point at this server.
func (e *IssueError) ChallengeFailed() bool {
	return strings.Contains(e.Output, "Challenge failed")
}

// IssueCommand is the certbot invocation for one domain. It also
// rewrites the site to redirect HTTP to HTTPS.
func IssueCommand(domain, email string) runner.Command {
	return runner.Sudo("certbot", "--nginx",
		"-d", domain,
		"--email", email,
		"--agree-tos",
		"--non-interactive",
		"--redirect")
}

// Issue requests a certificate for domain.
func (m *Manager) Issue(ctx context.Context, domain, email string) error {
	res := m.Runner.Run(ctx, IssueCommand(domain, email))
	if !res.OK() {
		return &IssueError{Domain: domain, Output: res.Diagnostic()}
	}
	return nil
}

// List returns the certificates certbot manages.
func (m *Manager) List(ctx context.Context) ([]Certificate, error) {
	res := m.Runner.Run(ctx, runner.Sudo("certbot", "certificates"))
	if !res.OK() {
		return nil, fmt.Errorf("listing certificates: %s", res.Diagnostic())
	}
	return ParseCertificates(res.Stdout), nil
}

// ParseCertificates reads the text output of `certbot certificates`.
func ParseCertificates(out string) []Certificate {
	var certs []Certificate
	var cur *Certificate
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Certificate Name":
			certs = append(certs, Certificate{Name: value})
			cur = &certs[len(certs)-1]
		case "Domains":
			if cur != nil {
				cur.Domains = strings.Fields(value)
			}
		case "Expiry Date":
			if cur != nil {
				cur.Expiry = value
			}
		case "Certificate Path":
			if cur != nil {
				cur.Path = value
			}
		}
	}
	return certs
}

// Names returns just the certificate names.
func (m *Manager) Names(ctx context.Context) []string {
	certs, err := m.List(ctx)
	if err != nil {
		return nil
	}
	names := make([]string, len(certs))
	for i, c := range certs {
		names[i] = c.Name
	}
	return names
}

// RenewOptions selects what Renew does.
type RenewOptions struct {
	All      bool
	CertName string
	DryRun   bool
}

// Renew renews all certificates, one named certificate, or simulates
// renewal with DryRun.
func (m *Manager) Renew(ctx context.Context, opts RenewOptions) (string, error) {
	argv := []string{"certbot", "renew"}
	switch {
	case opts.DryRun:
		argv = append(argv, "--dry-run")
	case opts.CertName != "" && !opts.All:
		argv = append(argv, "--cert-name", opts.CertName)
	}
	res := m.Runner.Run(ctx, runner.Sudo(argv...))
	if !res.OK() {
		return res.Combined(), fmt.Errorf("renewal failed: %s", res.Diagnostic())
	}
	return res.Combined(), nil
}

// Delete removes a certificate by name.
func (m *Manager) Delete(ctx context.Context, name string) error {
	c := runner.Sudo("certbot", "delete", "--cert-name", name, "--non-interactive")
	if err := runner.Do(ctx, m.Runner, c); err != nil {
		return fmt.Errorf("deleting certificate %s: %w", name, err)
	}
	return nil
}

// TimerStatus returns the renewal timer's status text and whether the
// unit query succeeded.
func (m *Manager) TimerStatus(ctx context.Context) (string, bool) {
	res := m.Runner.Run(ctx, runner.Sudo("systemctl", "status", "certbot.timer", "--no-pager"))
	return res.Combined(), res.OK()
}
