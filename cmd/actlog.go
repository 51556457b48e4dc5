package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/activity"
	"github.com/msalah0e/zappy/internal/ui"
)

func actlogCmd() *cobra.Command {
	var count int
	var query string
	cmd := &cobra.Command{
		Use:     "log",
		Aliases: []string{"activity", "history"},
		Short:   "Show the log of changes zappy made to this server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []activity.Entry
			var err error
			if query != "" {
				entries, err = activity.Search(query, count)
			} else {
				entries, err = activity.Read(count)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				if query != "" {
					fmt.Fprintf(ui.Out, "  No entries matching %q\n", query)
				} else {
					fmt.Fprintln(ui.Out, "  No activity recorded yet.")
				}
				return nil
			}
			printEntries(entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "number", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().StringVarP(&query, "search", "s", "", "Only show entries containing this text")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Clear the activity log",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := activity.Clear(); err != nil {
					return fmt.Errorf("clearing activity log: %w", err)
				}
				ui.Success("Activity log cleared")
				return nil
			},
		},
		&cobra.Command{
			Use:   "export",
			Short: "Print the activity log as JSON",
			RunE: func(cmd *cobra.Command, args []string) error {
				entries, err := activity.Read(0)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			},
		},
	)
	return cmd
}

func printEntries(entries []activity.Entry) {
	var rows [][]string
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04"),
			ui.StatusIcon(e.OK),
			e.Action,
			e.Target,
			truncateLog(e.Details, 50),
		})
	}
	ui.Table([]string{"TIME", "", "ACTION", "TARGET", "DETAILS"}, rows)
	fmt.Fprintf(ui.Out, "\n  Showing %d entries\n", len(entries))
}

func truncateLog(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
