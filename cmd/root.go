package cmd

import (
	"context"
	"embed"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/runner"
	"github.com/msalah0e/zappy/internal/ui"
)

var version = "1.0.0"

var (
	catalogFS  embed.FS
	noColor    bool
	noProgress bool
)

// errSudo is returned when elevated privileges cannot be obtained.
var errSudo = errors.New("this tool requires sudo privileges")

// needsSudo marks commands that verify `sudo -v` before running.
var needsSudo = map[string]string{"sudo": "true"}

// SetCatalogFS sets the embedded filesystem containing the TOML tool catalog.
func SetCatalogFS(fs embed.FS) {
	catalogFS = fs
}

var rootCmd = &cobra.Command{
	Use:   "zappy",
	Short: "zappy - the Linux server toolbox",
	Long: ui.Brand.Sprint(ui.Bolt+" zappy") + " - manage a Linux server from one console\n" +
		ui.Subtle.Sprint("Nginx, certificates, firewall, SSH, fail2ban, updates, Docker and common tools"),
	Version:       version + " " + ui.Bolt,
	Annotations:   needsSudo,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		a.prompt.SetContext(cmd.Context())
		if noColor || !a.cfg.UI.Color || os.Getenv("NO_COLOR") != "" {
			ui.DisableColor()
		}
		if cmd.Annotations["sudo"] == "true" && !runner.VerifySudo(cmd.Context(), a.run) {
			ui.Error("This tool requires sudo privileges.")
			ui.Error("Please run with sudo or configure sudo permissions.")
			return errSudo
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		a.console(cmd.Context())
		return cmd.Context().Err()
	},
}

func init() {
	rootCmd.SetVersionTemplate("zappy {{ .Version }}\n")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Print plain progress lines instead of the live table")

	rootCmd.AddCommand(
		toolsCmd(),
		nginxCmd(),
		sslCmd(),
		firewallCmd(),
		sshCmd(),
		fail2banCmd(),
		updatesCmd(),
		dockerCmd(),
		dockgeCmd(),
		shellCmd(),
		aitermyCmd(),
		monitorCmd(),
		statusCmd(),
		doctorCmd(),
		configCmd(),
		actlogCmd(),
		completionCmd(),
	)
}

// Execute runs the root command. The first Ctrl-C cancels the running
// operation and unwinds the console; a second one kills the process.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil, errors.Is(err, errSudo):
	case errors.Is(err, context.Canceled):
		ui.Warning("Interrupted.")
	default:
		ui.Error("zappy: %v", err)
	}
	return err
}
