package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/shell"
	"github.com/msalah0e/zappy/internal/ui"
)

func shellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Set up zsh with oh-my-zsh",
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().shellSetup(cmd.Context())
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:         "setup",
			Short:       "Install zsh and oh-my-zsh and make zsh the login shell",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().shellSetup(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current shell setup",
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().shellStatus(cmd.Context())
			},
		},
	)
	return cmd
}

// shellSetup walks through each step that is not done yet.
func (a *app) shellSetup(ctx context.Context) {
	ui.PrintHeader("Shell Setup", "zsh + oh-my-zsh")
	sh := a.shell()

	if !sh.ZshInstalled() {
		if !a.prompt.Confirm("zsh is not installed. Install it?", true) {
			return
		}
		if !a.record("shell install-zsh", "", sh.InstallZsh(ctx), "zsh installed.") {
			return
		}
	} else {
		ui.Success("zsh is installed.")
	}

	if !sh.OhMyZshInstalled() {
		if a.prompt.Confirm("Install oh-my-zsh?", true) {
			ui.Dim("Running the oh-my-zsh installer...")
			if !a.record("shell install-ohmyzsh", sh.Home, sh.InstallOhMyZsh(ctx), "oh-my-zsh installed.") {
				return
			}
		}
	} else {
		ui.Success("oh-my-zsh is installed.")
	}

	if !sh.ZshIsDefault() {
		if a.prompt.Confirm("Make zsh the default shell for "+sh.User+"?", true) {
			path, err := sh.SetDefault(ctx)
			if a.record("shell set-default", sh.User, err, "Default shell set to "+path+".") {
				ui.Note("Log out and back in for the change to take effect.")
			}
		}
	} else {
		ui.Success("zsh is already the default shell.")
	}

	printPlugins()
}

func printPlugins() {
	var rows [][]string
	for _, p := range shell.Plugins {
		origin := "bundled"
		if p.External {
			origin = "external"
		}
		rows = append(rows, []string{p.Name, origin, p.Summary})
	}
	ui.Dim("Recommended plugins (add them to plugins=(...) in ~/.zshrc):")
	ui.Table([]string{"PLUGIN", "SOURCE", "DESCRIPTION"}, rows)
}

func (a *app) shellStatus(ctx context.Context) {
	st := a.shell().Status(ctx)
	ui.KeyValue("Current shell", st.Current)
	if st.ZshVersion != "" {
		ui.KeyValue("zsh", st.ZshVersion)
	} else {
		ui.KeyValue("zsh", ui.StatusIcon(false)+" not installed")
	}
	ui.KeyValue("oh-my-zsh", ui.StatusIcon(st.OhMyZsh))
	if st.Theme != "" {
		ui.KeyValue("Theme", st.Theme)
	}
}
