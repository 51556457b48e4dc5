package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/ui"
	"github.com/msalah0e/zappy/internal/validate"
)

func fail2banCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "fail2ban",
		Aliases:     []string{"f2b"},
		Short:       "Manage fail2ban intrusion prevention",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().fail2banMenu(cmd.Context())
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:         "status",
			Short:       "Show service and jail status",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().fail2banStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "setup",
			Short:       "Install, configure and enable fail2ban",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().fail2banSetup(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "banned",
			Short:       "List banned IPs per jail",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().fail2banBanned(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "unban <ip>",
			Short:       "Unban an IP from every jail",
			Args:        cobra.ExactArgs(1),
			Annotations: needsSudo,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := validate.IP(args[0]); err != nil {
					return err
				}
				a := mustApp()
				a.record("fail2ban unban", args[0], a.fail2ban().Unban(cmd.Context(), args[0]), args[0]+" unbanned.")
				return nil
			},
		},
	)
	return cmd
}

func (a *app) fail2banMenu(ctx context.Context) {
	a.menu(ctx, "Fail2ban", []string{
		"View status",
		"Install and configure",
		"View banned IPs",
		"Unban IP",
		"Restart fail2ban",
	}, func(ctx context.Context, choice int) {
		switch choice {
		case 0:
			a.fail2banStatus(ctx)
		case 1:
			a.fail2banSetup(ctx)
		case 2:
			a.fail2banBanned(ctx)
		case 3:
			ip, ok := a.askValid("Enter IP to unban", "", validate.IP)
			if ok {
				a.record("fail2ban unban", ip, a.fail2ban().Unban(ctx, ip), ip+" unbanned.")
			}
		case 4:
			a.record("fail2ban restart", "", a.fail2ban().Restart(ctx), "fail2ban restarted.")
		}
		a.prompt.Pause()
	})
}

func (a *app) fail2banStatus(ctx context.Context) {
	f := a.fail2ban()
	if !f.Installed() {
		ui.Warning("fail2ban is not installed.")
		return
	}
	ui.KeyValue("Service", ui.StatusIcon(f.Running(ctx)))
	ui.Block(f.Status(ctx))
}

// fail2banSetup installs when needed, then writes jail.local and starts
// the service.
func (a *app) fail2banSetup(ctx context.Context) {
	f := a.fail2ban()
	if !f.Installed() {
		ui.Dim("Installing fail2ban...")
		if !a.record("fail2ban install", "", f.Install(ctx), "fail2ban installed.") {
			return
		}
	}
	if !a.record("fail2ban configure", f.JailLocal, f.Configure(ctx), "Wrote "+f.JailLocal+".") {
		return
	}
	a.record("fail2ban enable", "", f.Enable(ctx), "fail2ban enabled and started.")
}

func (a *app) fail2banBanned(ctx context.Context) {
	jails, err := a.fail2ban().Banned(ctx)
	if err != nil {
		ui.Error("%v", err)
		return
	}
	if len(jails) == 0 {
		ui.Warning("No active jails.")
		return
	}
	var rows [][]string
	for _, j := range jails {
		rows = append(rows, []string{
			j.Name,
			strconv.Itoa(j.CurrentlyBanned),
			strconv.Itoa(j.TotalBanned),
			strings.Join(j.BannedIPs, " "),
		})
	}
	ui.Table([]string{"JAIL", "BANNED", "TOTAL", "IPS"}, rows)
}
