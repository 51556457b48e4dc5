package installer

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/msalah0e/zappy/internal/runner"
)

// Env carries the host facts strategies plan against.
type Env struct {
	Arch    string // kernel machine name, as printed by `uname -m`
	Home    string
	TempDir string
	HTTP    *http.Client

	// NodeTarball switches the nvm strategy to the system-wide release
	// tarball.
	NodeTarball bool

	// Overridable release endpoints.
	GoVersionURL  string
	GoDownloadURL string
	NodeDistURL   string
}

// DetectEnv gathers Env from the running host.
func DetectEnv(ctx context.Context, r runner.Runner) Env {
	home, _ := os.UserHomeDir()
	return Env{
		Arch:    r.Run(ctx, runner.Cmd("uname", "-m")).Output(),
		Home:    home,
		TempDir: os.TempDir(),
		HTTP:    &http.Client{Timeout: 10 * time.Minute},
	}
}

func (e Env) client() *http.Client {
	if e.HTTP != nil {
		return e.HTTP
	}
	return http.DefaultClient
}

func (e Env) tempDir() string {
	if e.TempDir != "" {
		return e.TempDir
	}
	return os.TempDir()
}
