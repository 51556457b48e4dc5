package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/monitor"
	"github.com/msalah0e/zappy/internal/ui"
)

func statusCmd() *cobra.Command {
	var units []string
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"health", "overview"},
		Short:   "One-screen host overview: uptime, load, memory, disk and services",
		Run: func(cmd *cobra.Command, args []string) {
			a := mustApp()
			ui.Banner("server status")
			a.printOverviewUnits(cmd.Context(), units)
		},
	}
	cmd.Flags().StringSliceVar(&units, "units", nil, "systemd units to probe (default: nginx, docker, firewall, fail2ban, ssh, updaters)")
	return cmd
}

func (a *app) printOverview(ctx context.Context) {
	a.printOverviewUnits(ctx, nil)
}

func (a *app) printOverviewUnits(ctx context.Context, units []string) {
	s := a.monitor().Overview(ctx, units)

	host := a.plat.String()
	if s.Addresses != "" {
		host += "  " + ui.Subtle.Sprint(strings.Join(strings.Fields(s.Addresses), " "))
	}
	ui.KeyValue("Host", host)
	ui.KeyValue("Uptime", orDash(s.Uptime))
	ui.KeyValue("Load", orDash(s.Load))
	ui.KeyValue("Memory", orDash(s.Memory))
	ui.KeyValue("Disk /", orDash(s.Disk))
	fmt.Fprintln(ui.Out)

	var rows [][]string
	active := 0
	for _, u := range s.Units {
		if u.State == "inactive" || u.State == "unknown" {
			continue
		}
		rows = append(rows, []string{unitIcon(u), u.Unit, u.State})
		if u.Active() {
			active++
		}
	}
	if len(rows) == 0 {
		ui.Dim("None of the probed services are present.")
		return
	}
	ui.Table([]string{"", "SERVICE", "STATE"}, rows)
	fmt.Fprintf(ui.Out, "\n  %d/%d services active\n", active, len(rows))
}

func unitIcon(u monitor.UnitState) string {
	switch {
	case u.Active():
		return ui.StatusIcon(true)
	case u.State == "failed":
		return ui.StatusIcon(false)
	}
	return ui.WarnIcon()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
