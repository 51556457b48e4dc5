package installer

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/zappy/internal/archive"
)

// NodeDistURL is the Node.js release index.
const NodeDistURL = "https://nodejs.org/dist"

// NodePrefix receives bin, include, lib and share from the tarball.
const NodePrefix = "/usr/local"

var nodeArches = map[string]string{
	"x86_64":  "x64",
	"aarch64": "arm64",
	"armv7l":  "armv7l",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
}

// NodeArch maps a `uname -m` value to a Node.js release architecture tag.
func NodeArch(machine string) (string, bool) {
	arch, ok := nodeArches[strings.TrimSpace(machine)]
	return arch, ok
}

// nodeTarball installs the latest release of the pinned Node.js major
// under /usr/local from the official .tar.xz.
type nodeTarball struct{}

func (nodeTarball) Plan(env Env) ([]Step, error) {
	arch, ok := NodeArch(env.Arch)
	if !ok {
		return nil, fmt.Errorf("%w: Node.js on %q", ErrUnmappedArch, env.Arch)
	}

	staging := filepath.Join(env.tempDir(), "zappy-node")
	tree := filepath.Join(staging, "node")
	copyArgs := []string{"cp", "-a"}
	for _, dir := range []string{"bin", "include", "lib", "share"} {
		copyArgs = append(copyArgs, filepath.Join(tree, dir))
	}
	copyArgs = append(copyArgs, NodePrefix+"/")

	return []Step{
		{
			Describe: "Downloading Node.js " + NodeMajor + " release",
			Action: func(ctx context.Context) error {
				return fetchNode(ctx, env, arch, staging)
			},
		},
		{Describe: "Installing to " + NodePrefix, Command: sudo(copyArgs...)},
	}, nil
}

func fetchNode(ctx context.Context, env Env, arch, staging string) error {
	base := env.NodeDistURL
	if base == "" {
		base = NodeDistURL
	}
	release := fmt.Sprintf("%s/latest-v%s.x", base, NodeMajor)

	name, err := nodeTarballName(ctx, env.client(), release+"/SHASUMS256.txt", arch)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(staging); err != nil {
		return err
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return err
	}
	tarball := filepath.Join(staging, name)
	if err := download(ctx, env.client(), release+"/"+name, tarball); err != nil {
		return err
	}
	top, err := archive.Extract(tarball, staging)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", name, err)
	}
	// The top-level directory carries the version; give it a fixed name
	// so the copy step can be planned ahead.
	return os.Rename(top, filepath.Join(staging, "node"))
}

// nodeTarballName finds the linux .tar.xz for arch in a SHASUMS256.txt
// listing ("<sha256>  node-v24.1.0-linux-x64.tar.xz").
func nodeTarballName(ctx context.Context, client *http.Client, url, arch string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolving Node.js release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolving Node.js release: HTTP %d", resp.StatusCode)
	}

	suffix := "-linux-" + arch + ".tar.xz"
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && strings.HasPrefix(fields[1], "node-v") && strings.HasSuffix(fields[1], suffix) {
			return fields[1], nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no Node.js %s tarball for linux-%s", NodeMajor, arch)
}
