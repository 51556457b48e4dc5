package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/ui"
)

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tools",
		Aliases: []string{"t", "packages"},
		Short:   "List and install common server tools",
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().toolsList(cmd.Context())
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "Show every catalog tool with its install status",
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().toolsList(cmd.Context())
			},
		},
		toolsInstallCmd(),
		searchCmd(),
		infoCmd(),
		toolsParseCmd(),
	)
	return cmd
}

func (a *app) toolsList(ctx context.Context) {
	ui.Banner("tools")
	missing := printCatalog(a.detector().Detect(ctx, a.cat.All()))
	fmt.Fprintf(ui.Out, "\n  %d/%d installed", a.cat.Len()-len(missing), a.cat.Len())
	fmt.Fprintf(ui.Out, " %s\n", ui.Subtle.Sprint("(* = installed by zappy)"))
}

func toolsParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <selector>",
		Short: "Show which tools a selector picks, without installing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := mustApp()
			raw := args[0]
			for _, more := range args[1:] {
				raw += "," + more
			}
			names, err := a.selectNames(cmd.Context(), raw, nil)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintf(ui.Out, "  %2d  %s\n", a.cat.Index(name)+1, name)
			}
			return nil
		},
	}
}
