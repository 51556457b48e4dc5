package cmd

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/dockge"
	"github.com/msalah0e/zappy/internal/firewall"
	"github.com/msalah0e/zappy/internal/ui"
	"github.com/msalah0e/zappy/internal/validate"
)

func dockerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "docker",
		Short:       "Install Docker Engine and inspect the daemon",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().dockerMenu(cmd.Context())
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:         "status",
			Short:       "Show versions, service state and containers",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().dockerStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "install",
			Short:       "Install Docker Engine from the upstream repository",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().dockerInstall(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "info",
			Short:       "Show docker info",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().dockerInfo(cmd.Context())
			},
		},
	)
	return cmd
}

func dockgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "dockge",
		Short:       "Manage the Dockge compose stack manager",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().dockerMenu(cmd.Context())
		},
	}

	var port, stacks string
	install := &cobra.Command{
		Use:         "install",
		Short:       "Install and start Dockge",
		Annotations: needsSudo,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.Port(port); err != nil {
				return err
			}
			a := mustApp()
			if stacks == "" {
				stacks = a.cfg.Paths.StacksDir
			}
			a.dockgeInstall(cmd.Context(), port, stacks)
			return nil
		},
	}
	install.Flags().StringVar(&port, "port", dockge.DefaultPort, "Web UI port")
	install.Flags().StringVar(&stacks, "stacks", "", "Stacks directory (default from config)")

	var purge bool
	uninstall := &cobra.Command{
		Use:         "uninstall",
		Short:       "Remove the Dockge container (stacks are kept)",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			a := mustApp()
			a.record("dockge uninstall", "", a.dockge().Uninstall(cmd.Context(), purge), "Dockge removed.")
		},
	}
	uninstall.Flags().BoolVar(&purge, "purge", false, "Also delete the Dockge data directory")

	simple := func(use, short, action, okMsg string, fn func(*dockge.Manager, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:         use,
			Short:       short,
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				a := mustApp()
				a.record(action, "", fn(a.dockge(), cmd.Context()), okMsg)
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:         "status",
			Short:       "Show whether Dockge is installed and running",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().dockgeStatus(cmd.Context())
			},
		},
		install,
		simple("start", "Start Dockge", "dockge start", "Dockge started.", (*dockge.Manager).Start),
		simple("stop", "Stop Dockge", "dockge stop", "Dockge stopped.", (*dockge.Manager).Stop),
		simple("update", "Pull the latest image and restart", "dockge update", "Dockge updated.", (*dockge.Manager).Update),
		uninstall,
	)
	return cmd
}

func (a *app) dockerMenu(ctx context.Context) {
	a.menu(ctx, "Docker", []string{
		"Docker status",
		"Install Docker",
		"Docker info",
		"Dockge status",
		"Install Dockge",
		"Update Dockge",
		"Uninstall Dockge",
	}, func(ctx context.Context, choice int) {
		switch choice {
		case 0:
			a.dockerStatus(ctx)
		case 1:
			a.dockerInstall(ctx)
		case 2:
			a.dockerInfo(ctx)
		case 3:
			a.dockgeStatus(ctx)
		case 4:
			a.dockgeInstall(ctx, "", "")
		case 5:
			a.dockgeUpdate(ctx)
		case 6:
			a.dockgeUninstall(ctx)
		}
		a.prompt.Pause()
	})
}

func (a *app) dockerStatus(ctx context.Context) {
	d := a.docker()
	if !d.Installed() {
		ui.Warning("Docker is not installed.")
		return
	}
	engine, compose := d.Versions(ctx)
	ui.KeyValue("Engine", engine)
	ui.KeyValue("Compose", compose)
	ui.KeyValue("Daemon", ui.StatusIcon(d.Running(ctx)))
	service, containers := d.Status(ctx)
	ui.Block(service)
	ui.Block(containers)
}

func (a *app) dockerInstall(ctx context.Context) {
	d := a.docker()
	if d.Installed() {
		engine, _ := d.Versions(ctx)
		ui.Success("Docker is already installed: %s", engine)
		return
	}
	if !a.prompt.Confirm("Install Docker Engine on "+a.plat.String()+"?", true) {
		return
	}
	ui.Dim("Installing Docker. This can take a few minutes...")
	if !a.record("docker install", a.plat.ID, d.Install(ctx), "Docker installed.") {
		return
	}
	if d.User != "" && d.User != "root" {
		ui.Note("%s was added to the docker group. Log out and back in to use docker without sudo.", d.User)
	}
}

func (a *app) dockerInfo(ctx context.Context) {
	out, err := a.docker().Info(ctx)
	if err != nil {
		ui.Error("%v", err)
		return
	}
	ui.Block(out)
}

func (a *app) dockgeStatus(ctx context.Context) {
	g := a.dockge()
	if !g.Installed(ctx) {
		ui.Warning("Dockge is not installed.")
		return
	}
	running := g.Running(ctx)
	ui.KeyValue("Directory", g.Dir)
	ui.KeyValue("Stacks", g.StacksDir)
	ui.KeyValue("Running", ui.StatusIcon(running))
	if running {
		ui.KeyValue("URL", "http://<server-ip>:"+g.Port(ctx))
	}
}

// dockgeInstall prompts for any empty value, installs Docker first when
// needed and offers to open the web UI port.
func (a *app) dockgeInstall(ctx context.Context, port, stacks string) {
	g := a.dockge()
	if g.Installed(ctx) {
		ui.Success("Dockge is already installed in %s.", g.Dir)
		return
	}
	if !a.docker().Installed() {
		ui.Warning("Dockge needs Docker.")
		if !a.prompt.Confirm("Install Docker first?", true) {
			return
		}
		a.dockerInstall(ctx)
		if !a.docker().Installed() {
			return
		}
	}

	var ok bool
	if port == "" {
		if port, ok = a.askValid("Web UI port", dockge.DefaultPort, validate.Port); !ok {
			return
		}
	}
	if stacks == "" {
		if stacks, ok = a.ask("Stacks directory", g.StacksDir); !ok {
			return
		}
	}

	ui.Dim("Installing Dockge...")
	fallback, err := g.Install(ctx, port, stacks)
	if fallback {
		ui.Note("Upstream compose generator unreachable, used the built-in compose file.")
	}
	if !a.record("dockge install", port, err, "Dockge is running on port "+port+".") {
		return
	}

	fw := a.firewall()
	if fw.Kind(ctx) == firewall.None {
		return
	}
	if a.prompt.Confirm("Open port "+port+"/tcp in the firewall?", true) {
		n, _ := strconv.Atoi(port)
		a.record("firewall open", port, fw.OpenPort(ctx, n, firewall.TCP), "Port "+port+" opened.")
	}
}

func (a *app) dockgeUpdate(ctx context.Context) {
	ui.Dim("Pulling the latest Dockge image...")
	a.record("dockge update", "", a.dockge().Update(ctx), "Dockge updated.")
}

func (a *app) dockgeUninstall(ctx context.Context) {
	g := a.dockge()
	if !g.Installed(ctx) {
		ui.Warning("Dockge is not installed.")
		return
	}
	if !a.prompt.Confirm("Uninstall Dockge?", false) {
		return
	}
	ui.Note("Stacks in %s are kept.", g.StacksDir)
	purge := a.prompt.Confirm("Also delete "+g.Dir+"?", false)
	err := g.Uninstall(ctx, purge)
	if errors.Is(err, dockge.ErrNotInstalled) {
		ui.Warning("Dockge is not installed.")
		return
	}
	a.record("dockge uninstall", "", err, "Dockge removed.")
}
