package installer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/zappy/internal/archive"
	"github.com/msalah0e/zappy/internal/runner"
)

// Go release endpoints.
const (
	GoVersionURL  = "https://go.dev/VERSION?m=text"
	GoDownloadURL = "https://go.dev/dl"
	GoRoot        = "/usr/local/go"
	goPathLine    = "export PATH=$PATH:/usr/local/go/bin"
)

// ErrUnmappedArch is returned when the kernel architecture has no
// official release build.
var ErrUnmappedArch = errors.New("no release build for architecture")

var goArches = map[string]string{
	"x86_64":  "amd64",
	"aarch64": "arm64",
	"armv6l":  "armv6l",
	"armv7l":  "armv6l",
	"i686":    "386",
	"i386":    "386",
}

// GoArch maps a `uname -m` value to a Go release architecture tag.
func GoArch(machine string) (string, bool) {
	arch, ok := goArches[strings.TrimSpace(machine)]
	return arch, ok
}

// goTarball installs the latest official Go release under /usr/local/go.
type goTarball struct{}

func (goTarball) Plan(env Env) ([]Step, error) {
	arch, ok := GoArch(env.Arch)
	if !ok {
		return nil, fmt.Errorf("%w: Go on %q", ErrUnmappedArch, env.Arch)
	}

	staging := filepath.Join(env.tempDir(), "zappy-go")
	return []Step{
		{
			Describe: "Downloading latest Go release",
			Action: func(ctx context.Context) error {
				return fetchGo(ctx, env, arch, staging)
			},
		},
		{Describe: "Removing previous " + GoRoot, Command: sudo("rm", "-rf", GoRoot)},
		{Describe: "Installing to " + GoRoot, Command: sudo("cp", "-a", filepath.Join(staging, "go"), GoRoot)},
		{
			Describe: "Adding Go to PATH in ~/.profile",
			Action: func(context.Context) error {
				return appendLine(filepath.Join(env.Home, ".profile"), goPathLine)
			},
		},
	}, nil
}

func sudo(argv ...string) *runner.Command {
	c := runner.Sudo(argv...)
	return &c
}

func fetchGo(ctx context.Context, env Env, arch, staging string) error {
	version, err := latestGoVersion(ctx, env)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(staging); err != nil {
		return err
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return err
	}

	base := env.GoDownloadURL
	if base == "" {
		base = GoDownloadURL
	}
	name := fmt.Sprintf("%s.linux-%s.tar.gz", version, arch)
	tarball := filepath.Join(staging, name)
	if err := download(ctx, env.client(), base+"/"+name, tarball); err != nil {
		return err
	}
	top, err := archive.Extract(tarball, staging)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", name, err)
	}
	if filepath.Base(top) != "go" {
		return fmt.Errorf("unexpected archive layout: top-level %q", filepath.Base(top))
	}
	return nil
}

// latestGoVersion reads the first line of the VERSION endpoint, e.g. "go1.23.4".
func latestGoVersion(ctx context.Context, env Env) (string, error) {
	url := env.GoVersionURL
	if url == "" {
		url = GoVersionURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := env.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("resolving Go version: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolving Go version: HTTP %d", resp.StatusCode)
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	version := strings.TrimSpace(line)
	if !strings.HasPrefix(version, "go") {
		return "", fmt.Errorf("unexpected Go version %q", version)
	}
	return version, nil
}

func download(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to GET %s: HTTP %d", url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write response to file: %w", err)
	}
	return out.Close()
}

// appendLine adds line to path unless an identical line is already there.
func appendLine(path, line string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, existing := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(existing) == line {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	prefix := ""
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		prefix = "\n"
	}
	if _, err := fmt.Fprintf(f, "%s%s\n", prefix, line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
