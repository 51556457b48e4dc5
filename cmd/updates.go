package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/ui"
	"github.com/msalah0e/zappy/internal/updates"
)

func updatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "updates",
		Short:       "Configure automatic security updates",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().updatesMenu(cmd.Context())
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:         "status",
			Short:       "Show the automatic updater's state",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().updatesStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "setup",
			Short:       "Install and enable automatic security updates",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().updatesSetup(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "check",
			Short:       "List pending updates",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().updatesCheck(cmd.Context())
			},
		},
	)
	return cmd
}

func (a *app) updatesMenu(ctx context.Context) {
	a.menu(ctx, "Automatic Updates", []string{
		"View status",
		"Setup automatic updates",
		"Check for updates",
	}, func(ctx context.Context, choice int) {
		switch choice {
		case 0:
			a.updatesStatus(ctx)
		case 1:
			if a.prompt.Confirm("Enable automatic security updates?", true) {
				a.updatesSetup(ctx)
			}
		case 2:
			a.updatesCheck(ctx)
		}
		a.prompt.Pause()
	})
}

func (a *app) updatesStatus(ctx context.Context) {
	out, err := a.updates().Status(ctx)
	if err != nil {
		ui.Error("%v", err)
		return
	}
	ui.Block(out)
}

func (a *app) updatesSetup(ctx context.Context) {
	ui.Dim("Configuring automatic updates for %s...", a.plat)
	a.record("updates setup", a.plat.ID, a.updates().Setup(ctx), "Automatic security updates enabled.")
}

func (a *app) updatesCheck(ctx context.Context) {
	ui.Dim("Checking for updates...")
	out, err := a.updates().Check(ctx)
	if err != nil {
		ui.Block(out)
		ui.Error("%v", err)
		return
	}
	n := updates.Pending(a.plat.Family(), out)
	if n == 0 {
		ui.Success("System is up to date.")
		return
	}
	ui.Block(out)
	ui.Warning("%d package(s) can be upgraded.", n)
}
