package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/config"
	"github.com/msalah0e/zappy/internal/parallel"
	"github.com/msalah0e/zappy/internal/runner"
	"github.com/msalah0e/zappy/internal/ui"
)

// probe is one binary doctor looks for.
type probe struct {
	label string
	bin   string
	args  []string
}

var doctorProbes = []probe{
	{"nginx", "nginx", []string{"-v"}},
	{"certbot", "certbot", []string{"--version"}},
	{"ufw", "ufw", []string{"version"}},
	{"firewalld", "firewall-cmd", []string{"--version"}},
	{"fail2ban", "fail2ban-client", []string{"--version"}},
	{"Docker", "docker", []string{"--version"}},
	{"git", "git", []string{"--version"}},
	{"curl", "curl", []string{"--version"}},
	{"Python", "python3", []string{"--version"}},
	{"zsh", "zsh", []string{"--version"}},
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"dr"},
		Short:   "Check platform support, privileges, configuration and server software",
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().doctor(cmd.Context())
		},
	}
}

func (a *app) doctor(ctx context.Context) {
	ui.Banner("health check")

	warnings := 0
	check := func(ok bool, label, detail string) {
		icon := ui.StatusIcon(true)
		if !ok {
			icon = ui.WarnIcon()
			warnings++
		}
		fmt.Fprintf(ui.Out, "  %s %-16s %s\n", icon, label, detail)
	}

	check(a.plat.Supported(), "Platform", a.plat.String()+" ("+a.plat.Manager.String()+")")
	check(os.Geteuid() == 0 || a.run.LookPath("sudo"), "Privileges", privileges())
	cfgDetail := config.Path()
	if _, err := os.Stat(cfgDetail); err != nil {
		cfgDetail += " " + ui.Subtle.Sprint("(defaults)")
	}
	check(true, "Config", cfgDetail)
	check(a.cat.Len() > 0, "Catalog", fmt.Sprintf("%d tools", a.cat.Len()))
	fw := a.firewall().Kind(ctx)
	check(fw.String() != "none", "Firewall", fw.String())

	fmt.Fprintln(ui.Out)
	for _, r := range a.probeBinaries(ctx) {
		if r.OK {
			fmt.Fprintf(ui.Out, "  %s %s: %s\n", ui.StatusIcon(true), r.Name, r.Output)
		} else {
			fmt.Fprintf(ui.Out, "  %s %s: not found\n", ui.Subtle.Sprint("-"), r.Name)
		}
	}

	fmt.Fprintln(ui.Out)
	if warnings == 0 {
		ui.Success("Everything looks good.")
	} else {
		ui.Warning("%d warning(s).", warnings)
	}
}

// probeBinaries looks up versions concurrently. A missing binary is a
// failed result.
func (a *app) probeBinaries(ctx context.Context) []parallel.Result {
	tasks := make([]parallel.Task, len(doctorProbes))
	for i, p := range doctorProbes {
		tasks[i] = parallel.Task{Name: p.label, Fn: func(ctx context.Context) (string, error) {
			if !a.run.LookPath(p.bin) {
				return "", fmt.Errorf("%s not found", p.bin)
			}
			// nginx -v writes to stderr.
			res := a.run.Run(ctx, runner.Cmd(append([]string{p.bin}, p.args...)...))
			return catalog.ExtractVersion(res.Combined()), nil
		}}
	}
	return parallel.Run(ctx, tasks, 4)
}

func privileges() string {
	if os.Geteuid() == 0 {
		return "running as root"
	}
	return "sudo"
}
