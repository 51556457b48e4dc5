package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msalah0e/zappy/internal/nginx"
	"github.com/msalah0e/zappy/internal/runner"
)

// nginxDirs points the app at empty sites directories.
func nginxDirs(t *testing.T, a *app) (avail, enabled string) {
	t.Helper()
	avail, enabled = t.TempDir(), t.TempDir()
	a.cfg.Paths.NginxAvailable = avail
	a.cfg.Paths.NginxEnabled = enabled
	return avail, enabled
}

func TestNginxAddProxyAndEnable(t *testing.T) {
	f := runner.NewFake()
	a, buf := newTestApp(t, f, "example.com\n1\nlocalhost:3000\ny\n")
	avail, enabled := nginxDirs(t, a)

	a.nginxAdd(context.Background())

	c, ok := f.Find("tee " + filepath.Join(avail, "example.com"))
	if !ok {
		t.Fatalf("site file not written: %v", f.Lines())
	}
	if !strings.Contains(c.Stdin, "server_name example.com") || !strings.Contains(c.Stdin, "http://localhost:3000") {
		t.Errorf("unexpected server block:\n%s", c.Stdin)
	}
	link := "ln -s " + filepath.Join(avail, "example.com") + " " + filepath.Join(enabled, "example.com")
	if !f.Ran(link) {
		t.Errorf("site not enabled: %v", f.Lines())
	}
	if !f.Ran("systemctl reload nginx") {
		t.Error("nginx not reloaded")
	}
	if !strings.Contains(buf.String(), "enabled") {
		t.Errorf("missing confirmation:\n%s", buf.String())
	}
}

func TestNginxAddRejectsInvalidDomain(t *testing.T) {
	f := runner.NewFake()
	// The invalid domain is re-asked; end of input cancels.
	a, _ := newTestApp(t, f, "not a domain\n")
	nginxDirs(t, a)

	a.nginxAdd(context.Background())

	if f.RanPrefix("tee") {
		t.Error("nothing should be written for an invalid domain")
	}
}

func TestNginxAddExistingNeedsOverwrite(t *testing.T) {
	f := runner.NewFake()
	a, _ := newTestApp(t, f, "example.com\nn\n")
	avail, _ := nginxDirs(t, a)
	if err := os.WriteFile(filepath.Join(avail, "example.com"), []byte("server {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a.nginxAdd(context.Background())

	if f.RanPrefix("tee") {
		t.Error("existing site must not be overwritten without consent")
	}
}

func TestNginxDeleteNeedsConfirmation(t *testing.T) {
	f := runner.NewFake()
	a, _ := newTestApp(t, f, "n\n")
	avail, _ := nginxDirs(t, a)
	if err := os.WriteFile(filepath.Join(avail, "example.com"), []byte("server {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a.nginxDelete(context.Background(), "example.com")

	if f.RanPrefix("rm") || f.RanPrefix("cp") {
		t.Errorf("declined delete ran commands: %v", f.Lines())
	}
}

func TestNginxEditRestoresOnFailedTest(t *testing.T) {
	f := runner.NewFake().WithPath("nano")
	f.On("nginx -t", runner.Result{ExitCode: 1, Stderr: "unexpected }"})
	a, buf := newTestApp(t, f, "y\n")
	avail, _ := nginxDirs(t, a)

	a.nginxEdit(context.Background(), "example.com")

	if !f.Ran("nano " + filepath.Join(avail, "example.com")) {
		t.Errorf("editor not opened: %v", f.Lines())
	}
	restores := 0
	for _, l := range f.Lines() {
		if strings.HasPrefix(l, "cp ") && strings.HasSuffix(l, filepath.Join(avail, "example.com")) {
			restores++
		}
	}
	if restores != 1 {
		t.Errorf("expected one restore copy, got %d: %v", restores, f.Lines())
	}
	if f.Ran("systemctl reload nginx") {
		t.Error("a broken config must not be reloaded")
	}
	if !strings.Contains(buf.String(), "unexpected }") {
		t.Errorf("test output not shown:\n%s", buf.String())
	}
}

func TestPickSiteFilters(t *testing.T) {
	f := runner.NewFake()
	a, _ := newTestApp(t, f, "1\n")
	avail, enabled := nginxDirs(t, a)
	for _, name := range []string{"a.example.com", "b.example.com"} {
		if err := os.WriteFile(filepath.Join(avail, name), []byte("server {}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink(filepath.Join(avail, "a.example.com"), filepath.Join(enabled, "a.example.com")); err != nil {
		t.Fatal(err)
	}

	name, ok := a.pickSite("", "Select:", func(s nginx.Site) bool { return !s.Enabled })
	if !ok || name != "b.example.com" {
		t.Errorf("pickSite = %q, %v; want b.example.com", name, ok)
	}
}
