package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/msalah0e/zappy/internal/certbot"
	"github.com/msalah0e/zappy/internal/config"
	"github.com/msalah0e/zappy/internal/runner"
)

func TestCertbotEmailAsksAndSaves(t *testing.T) {
	a, buf := newTestApp(t, runner.NewFake(), "not-an-email\nops@example.com\n")

	email, ok := a.certbotEmail()
	if !ok || email != "ops@example.com" {
		t.Fatalf("certbotEmail = %q, %v", email, ok)
	}
	if got := config.Load().Certbot.Email; got != "ops@example.com" {
		t.Errorf("saved email = %q", got)
	}
	if !strings.Contains(buf.String(), "✗") {
		t.Errorf("invalid email should be reported:\n%s", buf.String())
	}
}

func TestCertbotEmailReusesSaved(t *testing.T) {
	a, _ := newTestApp(t, runner.NewFake(), "\n")
	a.cfg.Certbot.Email = "saved@example.com"

	email, ok := a.certbotEmail()
	if !ok || email != "saved@example.com" {
		t.Errorf("certbotEmail = %q, %v", email, ok)
	}
}

func TestEnsureCertbotDeclined(t *testing.T) {
	f := runner.NewFake()
	a, _ := newTestApp(t, f, "n\n")

	if a.ensureCertbot(context.Background()) {
		t.Error("expected false when install is declined")
	}
	if f.RanPrefix("apt install") {
		t.Error("certbot should not be installed")
	}
}

func TestEnsureCertbotInstalls(t *testing.T) {
	f := runner.NewFake()
	a, _ := newTestApp(t, f, "y\n")

	if !a.ensureCertbot(context.Background()) {
		t.Fatal("expected install to succeed")
	}
	if !f.Ran("apt install -y certbot python3-certbot-nginx") {
		t.Errorf("unexpected commands: %v", f.Lines())
	}
}

func TestRenewOptions(t *testing.T) {
	f := runner.NewFake()
	f.On("certbot certificates", runner.Result{Stdout: "Found the following certs:\n  Certificate Name: example.com\n    Domains: example.com\n"})
	tests := []struct {
		input string
		want  certbot.RenewOptions
	}{
		{"1\n", certbot.RenewOptions{All: true}},
		{"3\n", certbot.RenewOptions{All: true, DryRun: true}},
		{"2\n1\n", certbot.RenewOptions{CertName: "example.com"}},
	}
	for _, tt := range tests {
		a, _ := newTestApp(t, f, tt.input)
		got, ok := a.renewOptions(context.Background())
		if !ok || got != tt.want {
			t.Errorf("input %q: renewOptions = %+v, %v; want %+v", tt.input, got, ok, tt.want)
		}
	}
}

func TestSSLRenewDryRun(t *testing.T) {
	f := runner.NewFake()
	a, buf := newTestApp(t, f, "")

	a.sslRenew(context.Background(), certbot.RenewOptions{All: true, DryRun: true})

	if !f.Ran("certbot renew --dry-run") {
		t.Errorf("unexpected commands: %v", f.Lines())
	}
	if !strings.Contains(buf.String(), "Dry run succeeded") {
		t.Errorf("missing result:\n%s", buf.String())
	}
}
