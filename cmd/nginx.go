package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/nginx"
	"github.com/msalah0e/zappy/internal/ui"
	"github.com/msalah0e/zappy/internal/validate"
)

func nginxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "nginx",
		Aliases:     []string{"ng", "sites"},
		Short:       "Manage nginx sites",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().nginxMenu(cmd.Context())
		},
	}

	siteArg := func(use, short string, fn func(a *app, ctx context.Context, name string)) *cobra.Command {
		return &cobra.Command{
			Use:               use + " [site]",
			Short:             short,
			Args:              cobra.MaximumNArgs(1),
			ValidArgsFunction: siteCompletionFunc,
			Annotations:       needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				fn(mustApp(), cmd.Context(), name)
			},
		}
	}

	var probeTimeout time.Duration
	probe := &cobra.Command{
		Use:               "probe [site]",
		Short:             "Send an HTTP request to a site and show the response",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: siteCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			mustApp().nginxProbe(cmd.Context(), name, probeTimeout)
		},
	}
	probe.Flags().DurationVar(&probeTimeout, "timeout", 5*time.Second, "Request timeout")

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List sites with their enabled and SSL state",
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().nginxList()
			},
		},
		&cobra.Command{
			Use:         "add",
			Short:       "Create a site from a template",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().nginxAdd(cmd.Context())
			},
		},
		siteArg("enable", "Enable a site", (*app).nginxEnable),
		siteArg("disable", "Disable a site", (*app).nginxDisable),
		siteArg("delete", "Delete a site (a backup is kept)", (*app).nginxDelete),
		siteArg("show", "Print a site's configuration", (*app).nginxView),
		siteArg("edit", "Edit a site's configuration", (*app).nginxEdit),
		probe,
		&cobra.Command{
			Use:         "test",
			Short:       "Run nginx -t",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				a := mustApp()
				a.record("nginx test", "", a.nginx().Test(cmd.Context()), "Configuration test passed.")
			},
		},
		&cobra.Command{
			Use:         "reload",
			Short:       "Test the configuration and reload nginx",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().nginxReload(cmd.Context())
			},
		},
		&cobra.Command{
			Use:         "status",
			Short:       "Show the nginx service status",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				ui.Block(mustApp().nginx().Status(cmd.Context()))
			},
		},
	)
	return cmd
}

func (a *app) nginxMenu(ctx context.Context) {
	a.menu(ctx, "Nginx Management", []string{
		"List domains",
		"Add domain",
		"Enable domain",
		"Disable domain",
		"Delete domain",
		"View config",
		"Edit config",
		"Probe domain",
		"SSL Certificates",
		"Reload nginx",
		"Nginx status",
	}, func(ctx context.Context, choice int) {
		switch choice {
		case 0:
			a.nginxList()
		case 1:
			a.nginxAdd(ctx)
		case 2:
			a.nginxEnable(ctx, "")
		case 3:
			a.nginxDisable(ctx, "")
		case 4:
			a.nginxDelete(ctx, "")
		case 5:
			a.nginxView(ctx, "")
		case 6:
			a.nginxEdit(ctx, "")
		case 7:
			a.nginxProbe(ctx, "", 5*time.Second)
		case 8:
			a.sslMenu(ctx)
			return
		case 9:
			a.nginxReload(ctx)
		case 10:
			ui.Block(a.nginx().Status(ctx))
		}
		a.prompt.Pause()
	})
}

func (a *app) nginxList() {
	sites, err := a.nginx().Sites()
	if err != nil {
		ui.Error("%v", err)
		return
	}
	if len(sites) == 0 {
		ui.Warning("No sites configured.")
		return
	}
	var rows [][]string
	for _, s := range sites {
		ssl := ui.Subtle.Sprint("-")
		if s.SSL {
			ssl = ui.Good.Sprint("https")
		}
		rows = append(rows, []string{s.Name, ui.StatusIcon(s.Enabled), ssl, s.ConfigPath})
	}
	ui.Table([]string{"SITE", "ENABLED", "SSL", "CONFIG"}, rows)
}

// pickSite returns name when set, otherwise lets the user choose among
// the sites accepted by keep.
func (a *app) pickSite(name, title string, keep func(nginx.Site) bool) (string, bool) {
	if name != "" {
		return name, true
	}
	sites, err := a.nginx().Sites()
	if err != nil {
		ui.Error("%v", err)
		return "", false
	}
	var names []string
	for _, s := range sites {
		if keep == nil || keep(s) {
			names = append(names, s.Name)
		}
	}
	if len(names) == 0 {
		ui.Warning("No matching sites.")
		return "", false
	}
	i, ok := a.prompt.Select(title, names)
	if !ok {
		return "", false
	}
	return names[i], true
}

func (a *app) nginxAdd(ctx context.Context) {
	ui.PrintHeader("Add Domain", "")
	m := a.nginx()

	domain, ok := a.askValid("Enter domain name (e.g., example.com)", "", validate.Domain)
	if !ok {
		return
	}
	overwrite := false
	if m.Exists(domain) {
		ui.Warning("Configuration for %s already exists.", domain)
		if !a.prompt.Confirm("Overwrite existing configuration?", false) {
			return
		}
		overwrite = true
	}

	labels := make([]string, len(nginx.Templates))
	for i, t := range nginx.Templates {
		labels[i] = t.Description()
	}
	ti, ok := a.prompt.Select("Select template:", labels)
	if !ok {
		return
	}
	cfg := nginx.SiteConfig{Template: nginx.Templates[ti], Domain: domain, LogDir: a.cfg.Paths.NginxLogDir}

	switch {
	case cfg.Template.NeedsBackend():
		raw, ok := a.askValid("Enter backend URL (e.g., localhost:3000)", "", func(s string) error {
			_, err := validate.ProxyTarget(s)
			return err
		})
		if !ok {
			return
		}
		cfg.ProxyPass, _ = validate.ProxyTarget(raw)
	case cfg.Template.NeedsRoot():
		if cfg.Root, ok = a.ask("Enter root path", nginx.DefaultRoot(domain)); !ok {
			return
		}
	case cfg.Template == nginx.Redirect:
		if cfg.RedirectURL, ok = a.askValid("Enter redirect target URL", "", validate.URL); !ok {
			return
		}
	}

	path, err := m.Create(ctx, cfg, overwrite)
	var te *nginx.TestError
	switch {
	case errors.As(err, &te):
		ui.Warning("Site written to %s but the configuration test failed:", path)
		ui.Block(te.Output)
		_ = a.record("nginx add", domain, err, "")
		return
	case err != nil:
		a.record("nginx add", domain, err, "")
		return
	}
	a.record("nginx add", domain, nil, fmt.Sprintf("Created %s", path))

	if cfg.Template.NeedsRoot() {
		ui.Note("Create %s and add your files before enabling.", cfg.Root)
	}
	if a.prompt.Confirm("Enable this domain now?", true) {
		a.nginxEnable(ctx, domain)
	}
}

func (a *app) nginxEnable(ctx context.Context, name string) {
	name, ok := a.pickSite(name, "Select domain to enable:", func(s nginx.Site) bool { return !s.Enabled })
	if !ok {
		return
	}
	err := a.nginx().Enable(ctx, name)
	var te *nginx.TestError
	if errors.As(err, &te) {
		ui.Error("Configuration test failed. Reverted changes.")
		ui.Block(te.Output)
		_ = a.record("nginx enable", name, err, "")
		return
	}
	a.record("nginx enable", name, err, fmt.Sprintf("Domain '%s' enabled.", name))
}

func (a *app) nginxDisable(ctx context.Context, name string) {
	name, ok := a.pickSite(name, "Select domain to disable:", func(s nginx.Site) bool { return s.Enabled })
	if !ok {
		return
	}
	a.record("nginx disable", name, a.nginx().Disable(ctx, name), fmt.Sprintf("Domain '%s' disabled.", name))
}

func (a *app) nginxDelete(ctx context.Context, name string) {
	name, ok := a.pickSite(name, "Select domain to delete:", nil)
	if !ok {
		return
	}
	ui.Warning("This will delete the configuration for '%s'.", name)
	if !a.prompt.Confirm("Are you sure?", false) {
		return
	}
	saved, err := a.nginx().Delete(ctx, name)
	if a.record("nginx delete", name, err, fmt.Sprintf("Domain '%s' deleted.", name)) && saved != "" {
		ui.Note("Backup saved to %s", saved)
	}
}

func (a *app) nginxView(ctx context.Context, name string) {
	name, ok := a.pickSite(name, "Select domain:", nil)
	if !ok {
		return
	}
	content, err := a.nginx().Read(ctx, name)
	if err != nil {
		ui.Error("%v", err)
		return
	}
	ui.PrintHeader(name, a.nginx().ConfigPath(name))
	ui.Block(content)
}

func (a *app) nginxEdit(ctx context.Context, name string) {
	name, ok := a.pickSite(name, "Select domain to edit:", nil)
	if !ok {
		return
	}
	m := a.nginx()
	saved, err := m.Edit(ctx, name)
	var te *nginx.TestError
	switch {
	case errors.As(err, &te):
		ui.Error("Configuration test failed!")
		ui.Block(te.Output)
		if a.prompt.Confirm("Restore backup?", true) {
			a.record("nginx restore", name, m.Restore(ctx, name, saved), "Backup restored.")
		}
		return
	case err != nil:
		ui.Error("%v", err)
		return
	}
	ui.Success("Configuration test passed.")
	_ = a.record("nginx edit", name, nil, "")
	if a.prompt.Confirm("Reload nginx?", true) {
		a.nginxReload(ctx)
	}
}

func (a *app) nginxReload(ctx context.Context) {
	m := a.nginx()
	if err := m.Test(ctx); err != nil {
		a.record("nginx reload", "", err, "")
		return
	}
	a.record("nginx reload", "", m.Reload(ctx), "Nginx reloaded.")
}

func (a *app) nginxProbe(ctx context.Context, name string, timeout time.Duration) {
	name, ok := a.pickSite(name, "Select domain to probe:", func(s nginx.Site) bool { return s.Enabled })
	if !ok {
		return
	}
	site, err := a.nginx().Site(name)
	if err != nil {
		ui.Error("%v", err)
		return
	}
	url := nginx.SiteURL(site)
	res, err := nginx.Probe(ctx, url, timeout)
	if err != nil {
		ui.Error("%s: %v", url, err)
		return
	}
	ui.KeyValue("URL", res.URL)
	ui.KeyValue("Status", fmt.Sprintf("%s %d", ui.StatusIcon(res.OK()), res.StatusCode))
	if res.Server != "" {
		ui.KeyValue("Server", res.Server)
	}
	if res.Location != "" {
		ui.KeyValue("Redirects to", res.Location)
	}
	ui.KeyValue("Time", res.Elapsed.Round(time.Millisecond).String())
}
