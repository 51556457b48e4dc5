package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/config"
	"github.com/msalah0e/zappy/internal/ui"
)

func configCmd() *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(mustApp().cfg)
	}
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the zappy configuration file",
		RunE:  show,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			RunE:  show,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), config.Path())
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a config file with the defaults if none exists",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.EnsureExists(); err != nil {
					return fmt.Errorf("creating %s: %w", config.Path(), err)
				}
				ui.Success("Config at %s", config.Path())
				return nil
			},
		},
	)
	return cmd
}
