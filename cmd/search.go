package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/ui"
)

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "search <query>",
		Aliases: []string{"s", "find"},
		Short:   "Search the tool catalog by name or description",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := mustApp()
			results := a.cat.Search(args[0])
			if len(results) == 0 {
				fmt.Fprintf(ui.Out, "  No tools matching %q\n", args[0])
				return
			}
			var rows [][]string
			for _, t := range results {
				rows = append(rows, []string{fmt.Sprintf("%2d", a.cat.Index(t.Name)+1), t.Name, string(t.Kind), t.Description})
			}
			ui.Table([]string{"#", "TOOL", "KIND", "DESCRIPTION"}, rows)
		},
	}
}
