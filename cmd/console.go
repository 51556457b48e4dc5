package cmd

import (
	"context"

	"github.com/msalah0e/zappy/internal/ui"
)

// console is the interactive main menu. Backing out of it quits, as
// does cancelling ctx.
func (a *app) console(ctx context.Context) {
	a.prompt.SetContext(ctx)
	for ctx.Err() == nil {
		ui.PrintHeader(ui.Bolt+" zappy v"+version, "Linux server toolbox · "+a.plat.String())
		choice, ok := a.prompt.Select("Choose a category:", []string{
			"Nginx Management",
			"Firewall Management",
			"Security Hardening",
			"Docker Setup",
			"System Utilities",
		})
		if !ok {
			if ctx.Err() == nil {
				ui.Dim("Exiting...")
			}
			return
		}
		switch choice {
		case 0:
			a.nginxMenu(ctx)
		case 1:
			a.firewallMenu(ctx)
		case 2:
			a.securityMenu(ctx)
		case 3:
			a.dockerMenu(ctx)
		case 4:
			a.systemMenu(ctx)
		}
	}
}

func (a *app) securityMenu(ctx context.Context) {
	a.menu(ctx, "Security Hardening", []string{
		"SSH Configuration",
		"Fail2ban Setup",
		"Automatic Updates",
	}, func(ctx context.Context, choice int) {
		switch choice {
		case 0:
			a.sshMenu(ctx)
		case 1:
			a.fail2banMenu(ctx)
		case 2:
			a.updatesMenu(ctx)
		}
	})
}

func (a *app) systemMenu(ctx context.Context) {
	a.menu(ctx, "System Utilities", []string{
		"Install common tools",
		"Show installed tools",
		"Setup zsh + oh-my-zsh",
		"Shell status",
		"Install AiTermy",
		"Update AiTermy",
		"Uninstall AiTermy",
		"AiTermy status",
		"System monitoring",
	}, func(ctx context.Context, choice int) {
		switch choice {
		case 0:
			a.toolsInteractive(ctx)
		case 1:
			a.toolsList(ctx)
		case 2:
			a.shellSetup(ctx)
		case 3:
			a.shellStatus(ctx)
		case 4:
			a.aitermyInstall(ctx)
		case 5:
			a.aitermyUpdate(ctx)
		case 6:
			a.aitermyUninstall(ctx)
		case 7:
			a.aitermyStatus(ctx)
		case 8:
			a.monitorMenu(ctx)
			return
		}
		a.prompt.Pause()
	})
}
