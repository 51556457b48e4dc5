package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/firewall"
	"github.com/msalah0e/zappy/internal/sshd"
	"github.com/msalah0e/zappy/internal/ui"
	"github.com/msalah0e/zappy/internal/validate"
)

var rootLoginModes = []string{"no", "prohibit-password", "yes"}

func sshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "ssh",
		Aliases:     []string{"sshd"},
		Short:       "Review and harden the SSH server configuration",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().sshMenu(cmd.Context())
		},
	}

	var restart bool
	harden := &cobra.Command{
		Use:         "harden",
		Short:       "Apply recommended hardening directives",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			a := mustApp()
			if a.sshApply(cmd.Context(), "ssh harden", "", sshd.Hardening...) && restart {
				a.record("ssh restart", "", a.sshd().Restart(cmd.Context()), "SSH service restarted.")
			}
		},
	}
	harden.Flags().BoolVar(&restart, "restart", false, "Restart sshd afterwards")

	cmd.AddCommand(
		&cobra.Command{
			Use:         "status",
			Short:       "Show security-relevant sshd settings",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().sshStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "port <port>",
			Short:       "Change the SSH port",
			Args:        cobra.ExactArgs(1),
			Annotations: needsSudo,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := validate.Port(args[0]); err != nil {
					return err
				}
				mustApp().sshApply(cmd.Context(), "ssh port", args[0], sshd.Setting{Key: "Port", Value: args[0]})
				return nil
			},
		},
		harden,
		&cobra.Command{
			Use:         "restart",
			Short:       "Restart the SSH service",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				a := mustApp()
				a.record("ssh restart", "", a.sshd().Restart(cmd.Context()), "SSH service restarted.")
			},
		},
	)
	return cmd
}

func (a *app) sshMenu(ctx context.Context) {
	a.menu(ctx, "SSH Configuration", []string{
		"View status",
		"Change SSH port",
		"Root login",
		"Password authentication",
		"Apply hardening",
		"Restart SSH",
	}, func(ctx context.Context, choice int) {
		switch choice {
		case 0:
			a.sshStatus(ctx)
		case 1:
			a.sshChangePort(ctx)
		case 2:
			i, ok := a.prompt.Select("PermitRootLogin:", rootLoginModes)
			if !ok {
				return
			}
			a.sshChange(ctx, "ssh root-login", sshd.Setting{Key: "PermitRootLogin", Value: rootLoginModes[i]})
		case 3:
			value := "no"
			if a.prompt.Confirm("Allow password authentication?", false) {
				value = "yes"
			} else {
				ui.Warning("Make sure your SSH key works before restarting SSH.")
			}
			a.sshChange(ctx, "ssh password-auth", sshd.Setting{Key: "PasswordAuthentication", Value: value})
		case 4:
			for _, s := range sshd.Hardening {
				ui.KeyValue(s.Key, s.Value)
			}
			if a.prompt.Confirm("Apply these settings?", true) {
				a.sshChange(ctx, "ssh harden", sshd.Hardening...)
			}
		case 5:
			if a.prompt.Confirm("Restart SSH service?", false) {
				a.record("ssh restart", "", a.sshd().Restart(ctx), "SSH service restarted.")
			}
		}
		a.prompt.Pause()
	})
}

func (a *app) sshStatus(ctx context.Context) {
	settings, err := a.sshd().Settings(ctx)
	if err != nil {
		ui.Error("%v", err)
		return
	}
	var rows [][]string
	for _, c := range sshd.Checks(settings) {
		rows = append(rows, []string{ui.StatusIcon(c.Good), c.Label, c.Value})
	}
	ui.Table([]string{"", "SETTING", "VALUE"}, rows)

	recs := sshd.Recommendations(settings)
	if len(recs) == 0 {
		ui.Success("SSH configuration looks good.")
		return
	}
	fmt.Fprintln(ui.Out, ui.Brand.Sprint("Recommendations"))
	for _, r := range recs {
		ui.Warning("%s", r)
	}
}

func (a *app) sshChangePort(ctx context.Context) {
	port, ok := a.askValid("Enter new SSH port", "", validate.Port)
	if !ok {
		return
	}
	ui.Warning("Open port %s in the firewall before restarting SSH, or you may be locked out.", port)
	if a.prompt.Confirm("Open port "+port+"/tcp in the firewall now?", true) {
		n, _ := strconv.Atoi(port)
		err := a.firewall().OpenPort(ctx, n, firewall.TCP)
		if errors.Is(err, firewall.ErrNoFirewall) {
			ui.Note("No firewall found, skipping.")
		} else {
			a.record("firewall open", port, err, "Port "+port+" opened.")
		}
	}
	a.sshChange(ctx, "ssh port", sshd.Setting{Key: "Port", Value: port})
}

// sshChange applies changes and offers to restart the service.
func (a *app) sshChange(ctx context.Context, action string, changes ...sshd.Setting) {
	if !a.sshApply(ctx, action, changes[0].Value, changes...) {
		return
	}
	if a.prompt.Confirm("Restart SSH service now?", false) {
		a.record("ssh restart", "", a.sshd().Restart(ctx), "SSH service restarted.")
	} else {
		ui.Note("Changes take effect after SSH restarts.")
	}
}

func (a *app) sshApply(ctx context.Context, action, target string, changes ...sshd.Setting) bool {
	saved, err := a.sshd().Apply(ctx, changes...)
	var te *sshd.TestError
	if errors.As(err, &te) {
		ui.Error("sshd rejected the new configuration. The previous file was restored.")
		ui.Block(te.Output)
		_ = a.record(action, target, err, "")
		return false
	}
	if !a.record(action, target, err, "SSH configuration updated.") {
		return false
	}
	if saved != "" {
		ui.Dim("Backup: %s", saved)
	}
	return true
}
