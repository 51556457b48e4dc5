package cmd

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/firewall"
	"github.com/msalah0e/zappy/internal/ui"
	"github.com/msalah0e/zappy/internal/validate"
)

var errBadProto = errors.New("protocol must be tcp, udp or both")

var protocols = map[string]firewall.Protocol{
	"tcp":  firewall.TCP,
	"udp":  firewall.UDP,
	"both": firewall.Both,
}

func firewallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "firewall",
		Aliases:     []string{"fw"},
		Short:       "Manage the firewall (ufw or firewalld)",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().firewallMenu(cmd.Context())
		},
	}

	var proto string
	portCmd := func(use, short string, open bool) *cobra.Command {
		c := &cobra.Command{
			Use:         use + " <port>",
			Short:       short,
			Args:        cobra.ExactArgs(1),
			Annotations: needsSudo,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := validate.Port(args[0]); err != nil {
					return err
				}
				p, ok := protocols[proto]
				if !ok {
					return errBadProto
				}
				port, _ := strconv.Atoi(args[0])
				mustApp().firewallPort(cmd.Context(), port, p, open)
				return nil
			},
		}
		c.Flags().StringVar(&proto, "proto", "tcp", "Protocol: tcp, udp or both")
		return c
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:         "status",
			Short:       "Show firewall status",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().firewallStatus(cmd.Context())
			},
		},
		portCmd("open", "Allow inbound traffic on a port", true),
		portCmd("close", "Remove a port rule", false),
		&cobra.Command{
			Use:         "allow <service>",
			Short:       "Allow a service by name (ssh, http, https, ...)",
			Args:        cobra.ExactArgs(1),
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				a := mustApp()
				a.record("firewall allow", args[0], a.firewall().AllowService(cmd.Context(), args[0]),
					"Service '"+args[0]+"' allowed.")
			},
		},
		&cobra.Command{
			Use:         "rules",
			Short:       "List firewall rules",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().firewallRules(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "enable",
			Short:       "Enable the firewall (SSH is allowed first)",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				a := mustApp()
				a.record("firewall enable", "", a.firewall().Enable(cmd.Context()), "Firewall enabled.")
			},
		},
		&cobra.Command{
			Use:         "disable",
			Short:       "Disable the firewall",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				a := mustApp()
				a.record("firewall disable", "", a.firewall().Disable(cmd.Context()), "Firewall disabled.")
			},
		},
	)
	return cmd
}

func (a *app) firewallMenu(ctx context.Context) {
	a.menu(ctx, "Firewall Management", []string{
		"Show status",
		"Open port",
		"Close port",
		"Allow service",
		"List rules",
		"Enable firewall",
		"Disable firewall",
	}, func(ctx context.Context, choice int) {
		fw := a.firewall()
		switch choice {
		case 0:
			a.firewallStatus(ctx)
		case 1, 2:
			port, proto, ok := a.askPort()
			if !ok {
				return
			}
			a.firewallPort(ctx, port, proto, choice == 1)
		case 3:
			labels := make([]string, len(firewall.Services))
			for i, s := range firewall.Services {
				labels[i] = s.Label + " (" + strconv.Itoa(s.Port) + ")"
			}
			i, ok := a.prompt.Select("Select service:", labels)
			if !ok {
				return
			}
			name := firewall.Services[i].Name
			a.record("firewall allow", name, fw.AllowService(ctx, name), "Service '"+name+"' allowed.")
		case 4:
			a.firewallRules(ctx)
		case 5:
			ui.Note("SSH will be allowed before the firewall is enabled.")
			if a.prompt.Confirm("Enable firewall?", true) {
				a.record("firewall enable", "", fw.Enable(ctx), "Firewall enabled.")
			}
		case 6:
			ui.Warning("Disabling the firewall exposes every listening service.")
			if a.prompt.Confirm("Disable firewall?", false) {
				a.record("firewall disable", "", fw.Disable(ctx), "Firewall disabled.")
			}
		}
		a.prompt.Pause()
	})
}

func (a *app) askPort() (int, firewall.Protocol, bool) {
	raw, ok := a.askValid("Enter port number", "", validate.Port)
	if !ok {
		return 0, 0, false
	}
	i, ok := a.prompt.Select("Protocol:", []string{"TCP", "UDP", "Both"})
	if !ok {
		return 0, 0, false
	}
	port, _ := strconv.Atoi(raw)
	return port, []firewall.Protocol{firewall.TCP, firewall.UDP, firewall.Both}[i], true
}

func (a *app) firewallPort(ctx context.Context, port int, proto firewall.Protocol, open bool) {
	target := strconv.Itoa(port)
	if open {
		a.record("firewall open", target, a.firewall().OpenPort(ctx, port, proto), "Port "+target+" opened.")
		return
	}
	a.record("firewall close", target, a.firewall().ClosePort(ctx, port, proto), "Port "+target+" closed.")
}

func (a *app) firewallStatus(ctx context.Context) {
	fw := a.firewall()
	out, err := fw.Status(ctx)
	if err != nil {
		ui.Block(out)
		ui.Error("%v", err)
		return
	}
	ui.KeyValue("Firewall", fw.Kind(ctx).String())
	ui.Block(out)
}

func (a *app) firewallRules(ctx context.Context) {
	out, err := a.firewall().Rules(ctx)
	if err != nil {
		ui.Error("%v", err)
		return
	}
	ui.Block(out)
}
