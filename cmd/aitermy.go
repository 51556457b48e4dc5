package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/ui"
)

func aitermyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aitermy",
		Short: "Install the AiTermy terminal assistant",
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().aitermyStatus(cmd.Context())
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:         "install",
			Short:       "Clone AiTermy and run its installer",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().aitermyInstall(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "update",
			Short:       "Pull the latest AiTermy",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().aitermyUpdate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "uninstall",
			Short:       "Remove the AiTermy checkout",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().aitermyUninstall(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether AiTermy is installed and configured",
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().aitermyStatus(cmd.Context())
			},
		},
	)
	return cmd
}

func (a *app) aitermyInstall(ctx context.Context) {
	t := a.aitermy()
	if t.Installed(ctx) {
		ui.Success("AiTermy is already installed in %s.", t.Dir)
		if a.prompt.Confirm("Run the installer again?", false) {
			a.record("aitermy configure", t.Dir, t.RunInstaller(ctx), "AiTermy configured.")
		}
		return
	}
	if missing := t.Missing(); len(missing) > 0 {
		ui.Warning("Missing prerequisites: %s", strings.Join(missing, ", "))
		if !a.prompt.Confirm("Install them now?", true) {
			return
		}
		if !a.record("aitermy prerequisites", "", a.plat.Install(ctx, a.run, missing...), "Prerequisites installed.") {
			return
		}
	}
	ui.Dim("Cloning AiTermy into %s...", t.Dir)
	if !a.record("aitermy clone", t.Dir, t.Clone(ctx), "AiTermy downloaded.") {
		return
	}
	ui.Note("The installer will ask for an API key and a model.")
	if a.record("aitermy install", t.Dir, t.RunInstaller(ctx), "AiTermy installed.") {
		ui.Note("Open a new terminal or source your shell rc file, then run: ai \"your question\"")
	}
}

func (a *app) aitermyUpdate(ctx context.Context) {
	t := a.aitermy()
	if a.record("aitermy update", t.Dir, t.Update(ctx), "AiTermy updated.") {
		if c := t.LastCommit(ctx); c != "" {
			ui.KeyValue("Version", c)
		}
	}
}

func (a *app) aitermyUninstall(ctx context.Context) {
	t := a.aitermy()
	if !a.prompt.Confirm("Remove "+t.Dir+"?", false) {
		return
	}
	if a.record("aitermy uninstall", t.Dir, t.Uninstall(ctx), "AiTermy removed.") {
		ui.Note("Remove the aitermy lines from your shell rc file by hand.")
	}
}

func (a *app) aitermyStatus(ctx context.Context) {
	t := a.aitermy()
	installed := t.Installed(ctx)
	ui.KeyValue("Installed", ui.StatusIcon(installed))
	if !installed {
		return
	}
	ui.KeyValue("Directory", t.Dir)
	if c := t.LastCommit(ctx); c != "" {
		ui.KeyValue("Version", c)
	}
	ui.KeyValue("Shell configured", ui.StatusIcon(t.Configured()))
}
