package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/monitor"
	"github.com/msalah0e/zappy/internal/parallel"
	"github.com/msalah0e/zappy/internal/ui"
)

// maxSectionLines caps long listings such as running services.
const maxSectionLines = 40

func monitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "monitor",
		Aliases: []string{"mon"},
		Short:   "System resources, services, network and logs",
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().monitorMenu(cmd.Context())
		},
	}

	logKinds := map[string]monitor.LogKind{
		"system": monitor.SystemLog,
		"nginx":  monitor.NginxLog,
		"auth":   monitor.AuthLog,
		"kernel": monitor.KernelLog,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "resources",
			Short: "CPU, memory, disk and load",
			Run: func(cmd *cobra.Command, args []string) {
				printSections(mustApp().monitor().Resources(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:         "services",
			Short:       "Running services",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				printSections([]monitor.Section{{Title: "Running Services", Body: mustApp().monitor().Services(cmd.Context())}})
			},
		},
		&cobra.Command{
			Use:         "failed",
			Short:       "Failed services",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().monitorFailed(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "network",
			Short:       "Listening ports and addresses",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				printSections(mustApp().monitor().Network(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:         "logs <system|nginx|auth|kernel>",
			Short:       "Recent log entries",
			Args:        cobra.ExactArgs(1),
			ValidArgs:   []string{"system", "nginx", "auth", "kernel"},
			Annotations: needsSudo,
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, ok := logKinds[args[0]]
				if !ok {
					return fmt.Errorf("unknown log %q (want system, nginx, auth or kernel)", args[0])
				}
				printSections(mustApp().monitor().Logs(cmd.Context(), kind))
				return nil
			},
		},
	)
	return cmd
}

func (a *app) monitorMenu(ctx context.Context) {
	a.menu(ctx, "System Monitor", []string{
		"Overview",
		"Resources",
		"Running services",
		"Failed services",
		"Network",
		"Logs",
	}, func(ctx context.Context, choice int) {
		m := a.monitor()
		switch choice {
		case 0:
			a.printOverview(ctx)
		case 1:
			printSections(m.Resources(ctx))
		case 2:
			printSections([]monitor.Section{{Title: "Running Services", Body: m.Services(ctx)}})
		case 3:
			a.monitorFailed(ctx)
		case 4:
			printSections(m.Network(ctx))
		case 5:
			labels := make([]string, len(monitor.LogKinds))
			for i, k := range monitor.LogKinds {
				labels[i] = k.String()
			}
			i, ok := a.prompt.Select("Select log:", labels)
			if !ok {
				return
			}
			printSections(m.Logs(ctx, monitor.LogKinds[i]))
		}
		a.prompt.Pause()
	})
}

func (a *app) monitorFailed(ctx context.Context) {
	out, none := a.monitor().FailedServices(ctx)
	if none {
		ui.Success("No failed services.")
		return
	}
	printSections([]monitor.Section{{Title: "Failed Services", Body: out}})
}

func printSections(sections []monitor.Section) {
	for _, s := range sections {
		fmt.Fprintln(ui.Out, ui.Brand.Sprint(s.Title))
		body := strings.TrimSpace(s.Body)
		if body == "" {
			ui.Dim("(no output)")
		} else {
			ui.Block(strings.Join(parallel.TruncateLines(body, maxSectionLines), "\n"))
		}
		fmt.Fprintln(ui.Out)
	}
}
