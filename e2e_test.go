//go:build e2e

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var zappyBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "zappy-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	zappyBin = filepath.Join(tmp, "zappy")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/zappy/cmd.version=1.5.0-test", "-o", zappyBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build zappy: " + err.Error())
	}

	os.Exit(m.Run())
}

// runZappy executes the zappy binary with an isolated HOME directory.
func runZappy(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(zappyBin, args...)
	home := t.TempDir()
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"NO_COLOR=1",
	)
	cmd.Stdin = strings.NewReader("")

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run zappy %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func TestE2E_Version(t *testing.T) {
	out, _, code := runZappy(t, "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "1.5.0") {
		t.Errorf("expected version output to contain '1.5.0', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := runZappy(t, "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"Available Commands", "nginx", "firewall", "tools"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestE2E_ToolsList(t *testing.T) {
	out, _, code := runZappy(t, "tools", "list")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"htop", "ripgrep", "nvm-node", "/17 installed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected tools list to contain %q, got:\n%s", want, out)
		}
	}
}

func TestE2E_ToolsParse(t *testing.T) {
	out, _, code := runZappy(t, "tools", "parse", "1-3,5")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"htop", "micro", "ncdu", "tree"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected parse output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "tmux") {
		t.Errorf("tmux (4) should not be selected, got:\n%s", out)
	}
}

func TestE2E_ToolsParseInvalid(t *testing.T) {
	out, _, code := runZappy(t, "tools", "parse", "99")
	if code == 0 {
		t.Fatal("expected non-zero exit for an out-of-range selector")
	}
	if !strings.Contains(out, "zappy:") {
		t.Errorf("expected an error line, got %q", out)
	}
}

func TestE2E_Search(t *testing.T) {
	out, _, code := runZappy(t, "tools", "search", "grep")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "ripgrep") {
		t.Errorf("expected search to find ripgrep, got:\n%s", out)
	}
}

func TestE2E_ConfigPath(t *testing.T) {
	out, _, code := runZappy(t, "config", "path")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), filepath.Join("zappy", "config.toml")) {
		t.Errorf("unexpected config path %q", out)
	}
}

func TestE2E_LogEmpty(t *testing.T) {
	out, _, code := runZappy(t, "log")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "No activity recorded yet") {
		t.Errorf("expected empty log message, got %q", out)
	}
}

func TestE2E_Completion(t *testing.T) {
	out, _, code := runZappy(t, "completion", "bash")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "zappy") {
		t.Error("expected bash completion to mention zappy")
	}
}

func TestE2E_UnknownCommand(t *testing.T) {
	_, _, code := runZappy(t, "definitely-not-a-command")
	if code == 0 {
		t.Fatal("expected non-zero exit for an unknown command")
	}
}
