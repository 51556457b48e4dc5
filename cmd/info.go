package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/installer"
	"github.com/msalah0e/zappy/internal/state"
	"github.com/msalah0e/zappy/internal/ui"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "info <tool>",
		Short:             "Show detailed info about a tool",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: toolCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := mustApp()
			tool := a.cat.Get(args[0])
			if tool == nil {
				return fmt.Errorf("unknown tool %q (try `zappy tools search`)", args[0])
			}

			ui.Banner("tool info")
			fmt.Fprintf(ui.Out, "  %s %s\n", ui.Brand.Sprint(tool.DisplayName()), ui.Subtle.Sprintf("(%s)", tool.Kind))
			fmt.Fprintf(ui.Out, "  %s\n\n", tool.Description)

			method, pkg := installer.Method(*tool, a.plat.Manager)
			ui.KeyValue("Install method", method)
			if pkg != "" {
				ui.KeyValue("Package", pkg)
			}
			ui.KeyValue("Detection", tool.DetectScript(a.plat.Manager))

			dt := a.detector().DetectOne(cmd.Context(), *tool)
			status := ui.PendingIcon() + " not installed"
			if dt.Installed {
				status = ui.StatusIcon(true) + " installed"
				if dt.Version != "" {
					status += " " + dt.Version
				}
			}
			ui.KeyValue("Status", status)

			if rec, ok := state.Load().Installed[tool.Name]; ok {
				ui.KeyValue("Installed by zappy", rec.InstalledAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
