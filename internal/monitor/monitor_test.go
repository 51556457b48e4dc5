package monitor

import (
	"context"
	"testing"

	"github.com/msalah0e/zappy/internal/runner"
)

func TestFailedServices(t *testing.T) {
	tests := []struct {
		name string
		out  string
		none bool
	}{
		{"empty", "", true},
		{"zero units", "  UNIT LOAD ACTIVE SUB DESCRIPTION\n0 loaded units listed.", true},
		{"one failed", "● mysql.service loaded failed failed MySQL\n\n1 loaded units listed.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := runner.NewFake().On("systemctl list-units --type=service --state=failed --no-pager", runner.Result{Stdout: tt.out})
			out, none := New(f, "").FailedServices(context.Background())
			if none != tt.none {
				t.Errorf("expected none=%v, got %v (%q)", tt.none, none, out)
			}
		})
	}
}

func TestAuthLogFallback(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *runner.Fake)
		title string
	}{
		{
			name: "debian auth.log",
			setup: func(f *runner.Fake) {
				f.On("tail -50 /var/log/auth.log", runner.Result{Stdout: "sshd[1]: Accepted publickey"})
			},
			title: "/var/log/auth.log",
		},
		{
			name: "rhel secure",
			setup: func(f *runner.Fake) {
				f.Fail("tail -50 /var/log/auth.log")
				f.On("tail -50 /var/log/secure", runner.Result{Stdout: "sshd[1]: Accepted password"})
			},
			title: "/var/log/secure",
		},
		{
			name: "journal",
			setup: func(f *runner.Fake) {
				f.Fail("tail -50 /var/log/auth.log")
				f.Fail("tail -50 /var/log/secure")
			},
			title: "journalctl -u sshd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := runner.NewFake()
			tt.setup(f)
			got := New(f, "").Logs(context.Background(), AuthLog)
			if len(got) != 1 || got[0].Title != tt.title {
				t.Errorf("expected %s, got %+v", tt.title, got)
			}
		})
	}
}

func TestNginxLogsPlaceholders(t *testing.T) {
	f := runner.NewFake().On("tail -20 /srv/log/nginx/access.log", runner.Result{Stdout: "GET / 200"})
	got := New(f, "/srv/log/nginx").Logs(context.Background(), NginxLog)
	if got[0].Body != "GET / 200" || got[1].Body != "No error log entries" {
		t.Errorf("unexpected %+v", got)
	}
}

func TestOverview(t *testing.T) {
	f := runner.NewFake()
	f.On("cat /proc/loadavg", runner.Result{Stdout: "0.15 0.10 0.05 1/123 4567\n"})
	f.On("uptime -p", runner.Result{Stdout: "up 3 days, 2 hours\n"})
	f.On("systemctl is-active nginx", runner.Result{Stdout: "active\n"})
	f.On("systemctl is-active docker", runner.Result{ExitCode: 3, Stdout: "inactive\n"})

	s := New(f, "").Overview(context.Background(), []string{"nginx", "docker", "fail2ban"})
	if s.Load != "0.15 0.10 0.05" || s.Uptime != "up 3 days, 2 hours" {
		t.Errorf("unexpected summary %+v", s)
	}
	want := []UnitState{{"nginx", "active"}, {"docker", "inactive"}, {"fail2ban", "unknown"}}
	if len(s.Units) != len(want) {
		t.Fatalf("expected %d units, got %+v", len(want), s.Units)
	}
	for i, u := range want {
		if s.Units[i] != u {
			t.Errorf("unit %d: expected %+v, got %+v", i, u, s.Units[i])
		}
	}
	if !s.Units[0].Active() || s.Units[1].Active() {
		t.Error("Active mismatch")
	}
}

func TestLogKindString(t *testing.T) {
	for _, k := range LogKinds {
		if k.String() == "unknown" {
			t.Errorf("kind %d has no label", k)
		}
	}
}
