package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/msalah0e/zappy/internal/activity"
	"github.com/msalah0e/zappy/internal/aitermy"
	"github.com/msalah0e/zappy/internal/backup"
	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/certbot"
	"github.com/msalah0e/zappy/internal/config"
	"github.com/msalah0e/zappy/internal/docker"
	"github.com/msalah0e/zappy/internal/dockge"
	"github.com/msalah0e/zappy/internal/fail2ban"
	"github.com/msalah0e/zappy/internal/firewall"
	"github.com/msalah0e/zappy/internal/monitor"
	"github.com/msalah0e/zappy/internal/nginx"
	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
	"github.com/msalah0e/zappy/internal/shell"
	"github.com/msalah0e/zappy/internal/sshd"
	"github.com/msalah0e/zappy/internal/tui"
	"github.com/msalah0e/zappy/internal/ui"
	"github.com/msalah0e/zappy/internal/updates"
)

// app is everything a command needs, built once per process. The platform
// is detected here and passed by value from then on.
type app struct {
	cfg    *config.Config
	run    runner.Runner
	plat   platform.Descriptor
	cat    *catalog.Catalog
	prompt *ui.Prompter

	fw *firewall.Manager
}

var current *app

// newApp builds the process-wide app. Tests replace it.
var newApp = func() (*app, error) {
	cat, err := catalog.LoadFromFS(catalogFS, "catalog")
	if err != nil {
		return nil, fmt.Errorf("loading tool catalog: %w", err)
	}
	r := runner.NewExec()
	return &app{
		cfg:    config.Load(),
		run:    r,
		plat:   platform.Detect(r.LookPath),
		cat:    cat,
		prompt: ui.NewPrompter(os.Stdin, ui.Out),
	}, nil
}

func getApp() (*app, error) {
	if current != nil {
		return current, nil
	}
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	current = a
	return current, nil
}

// mustApp is for command bodies, which only run after PersistentPreRunE
// has built the app.
func mustApp() *app {
	a, err := getApp()
	if err != nil {
		panic(err)
	}
	return a
}

// record logs a mutating action and prints its outcome.
func (a *app) record(action, target string, err error, okMsg string) bool {
	_ = activity.Record(action, target, err)
	if err != nil {
		ui.Error("%v", err)
		return false
	}
	if okMsg != "" {
		ui.Success("%s", okMsg)
	}
	return true
}

func (a *app) progressMode() tui.OutputMode {
	return tui.DetectMode(os.Stdout, noProgress || !a.cfg.UI.Progress)
}

func (a *app) backups() *backup.Store {
	return backup.New(a.run, a.cfg.Paths.BackupDir)
}

func (a *app) nginx() *nginx.Manager {
	p := a.cfg.Paths
	return &nginx.Manager{
		Runner:    a.run,
		Backups:   a.backups(),
		Available: p.NginxAvailable,
		Enabled:   p.NginxEnabled,
		LogDir:    p.NginxLogDir,
	}
}

func (a *app) certbot() *certbot.Manager {
	return &certbot.Manager{Runner: a.run, Platform: a.plat}
}

func (a *app) firewall() *firewall.Manager {
	if a.fw == nil {
		a.fw = &firewall.Manager{Runner: a.run}
	}
	return a.fw
}

func (a *app) sshd() *sshd.Manager {
	return &sshd.Manager{Runner: a.run, Backups: a.backups(), Path: a.cfg.Paths.SSHDConfig}
}

func (a *app) fail2ban() *fail2ban.Manager {
	return &fail2ban.Manager{Runner: a.run, Platform: a.plat, JailLocal: a.cfg.Paths.JailLocal}
}

func (a *app) updates() *updates.Manager {
	return &updates.Manager{Runner: a.run, Platform: a.plat}
}

func (a *app) docker() *docker.Manager {
	return docker.New(a.run, a.plat)
}

func (a *app) dockge() *dockge.Manager {
	return dockge.New(a.run, a.cfg.Paths.DockgeDir, a.cfg.Paths.StacksDir)
}

func (a *app) shell() *shell.Manager {
	return shell.New(a.run, a.plat)
}

func (a *app) aitermy() *aitermy.Manager {
	return aitermy.New(a.run, a.cfg.Paths.AitermyDir)
}

func (a *app) monitor() *monitor.Monitor {
	return monitor.New(a.run, a.cfg.Paths.NginxLogDir)
}

// menu runs a submenu loop until the user backs out or ctx is done.
func (a *app) menu(ctx context.Context, title string, options []string, handle func(ctx context.Context, choice int)) {
	for ctx.Err() == nil {
		ui.PrintHeader(title, "")
		choice, ok := a.prompt.Select("Select action:", options)
		if !ok {
			return
		}
		handle(ctx, choice)
	}
}

// ask wraps Prompter.Ask for menu handlers, where end of input cancels.
func (a *app) ask(label, def string) (string, bool) {
	v, err := a.prompt.Ask(label, def)
	return v, err == nil
}

func (a *app) askValid(label, def string, check func(string) error) (string, bool) {
	v, err := a.prompt.AskValid(label, def, check)
	return v, err == nil
}
