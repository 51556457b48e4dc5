package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/zappy/internal/certbot"
	"github.com/msalah0e/zappy/internal/config"
	"github.com/msalah0e/zappy/internal/nginx"
	"github.com/msalah0e/zappy/internal/ui"
	"github.com/msalah0e/zappy/internal/validate"
)

func sslCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "ssl",
		Aliases:     []string{"certs", "https"},
		Short:       "Manage Let's Encrypt certificates",
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			mustApp().sslMenu(cmd.Context())
		},
	}

	var all, dryRun bool
	renew := &cobra.Command{
		Use:         "renew [cert-name]",
		Short:       "Renew certificates",
		Args:        cobra.MaximumNArgs(1),
		Annotations: needsSudo,
		Run: func(cmd *cobra.Command, args []string) {
			opts := certbot.RenewOptions{All: all || len(args) == 0, DryRun: dryRun}
			if len(args) == 1 {
				opts.CertName = args[0]
			}
			mustApp().sslRenew(cmd.Context(), opts)
		},
	}
	renew.Flags().BoolVar(&all, "all", false, "Renew every certificate")
	renew.Flags().BoolVar(&dryRun, "dry-run", false, "Simulate renewal")

	cmd.AddCommand(
		&cobra.Command{
			Use:         "add [site]",
			Short:       "Request a certificate for an enabled site",
			Args:        cobra.MaximumNArgs(1),
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				site := ""
				if len(args) == 1 {
					site = args[0]
				}
				mustApp().sslAdd(cmd.Context(), site)
			},
		},
		&cobra.Command{
			Use:         "list",
			Aliases:     []string{"ls"},
			Short:       "List certificates",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().sslList(cmd.Context())
			},
		},
		renew,
		&cobra.Command{
			Use:         "delete [cert-name]",
			Short:       "Delete a certificate",
			Args:        cobra.MaximumNArgs(1),
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				mustApp().sslDelete(cmd.Context(), name)
			},
		},
		&cobra.Command{
			Use:         "timer",
			Short:       "Show the automatic renewal timer",
			Annotations: needsSudo,
			Run: func(cmd *cobra.Command, args []string) {
				mustApp().sslTimer(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "dns <domain>",
			Short: "Check whether a domain resolves to this server",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := validate.Domain(args[0]); err != nil {
					return err
				}
				mustApp().sslDNS(cmd.Context(), args[0])
				return nil
			},
		},
	)
	return cmd
}

func (a *app) sslMenu(ctx context.Context) {
	a.menu(ctx, "SSL Certificates", []string{
		"Add HTTPS to domain",
		"List certificates",
		"Renew certificates",
		"Delete certificate",
		"Check renewal timer",
	}, func(ctx context.Context, choice int) {
		switch choice {
		case 0:
			a.sslAdd(ctx, "")
		case 1:
			a.sslList(ctx)
		case 2:
			opts, ok := a.renewOptions(ctx)
			if !ok {
				return
			}
			a.sslRenew(ctx, opts)
		case 3:
			a.sslDelete(ctx, "")
		case 4:
			a.sslTimer(ctx)
		}
		a.prompt.Pause()
	})
}

// ensureCertbot offers to install certbot when it is missing.
func (a *app) ensureCertbot(ctx context.Context) bool {
	cb := a.certbot()
	if cb.Installed() {
		return true
	}
	ui.Warning("certbot is not installed.")
	if !a.prompt.Confirm("Install certbot now?", true) {
		return false
	}
	return a.record("certbot install", "", cb.Install(ctx), "certbot installed.")
}

// certbotEmail returns the saved registration email or asks for one and
// stores it in the config file.
func (a *app) certbotEmail() (string, bool) {
	if saved := a.cfg.Certbot.Email; saved != "" {
		if a.prompt.Confirm("Use saved email "+saved+"?", true) {
			return saved, true
		}
	}
	email, ok := a.askValid("Enter email for Let's Encrypt notifications", "", validate.Email)
	if !ok {
		return "", false
	}
	a.cfg.Certbot.Email = email
	if err := config.Save(a.cfg); err != nil {
		ui.Warning("Could not save email: %v", err)
	}
	return email, true
}

func (a *app) sslAdd(ctx context.Context, site string) {
	ui.PrintHeader("Add HTTPS", "")
	if !a.ensureCertbot(ctx) {
		return
	}
	site, ok := a.pickSite(site, "Select domain:", func(s nginx.Site) bool { return s.Enabled && !s.SSL })
	if !ok {
		return
	}
	email, ok := a.certbotEmail()
	if !ok {
		return
	}

	if !a.sslDNS(ctx, site) && !a.prompt.Confirm("Continue anyway?", false) {
		return
	}
	if !a.prompt.Confirm("Request a certificate for "+site+"?", true) {
		return
	}

	ui.Dim("Requesting certificate...")
	err := a.certbot().Issue(ctx, site, email)
	var ie *certbot.IssueError
	if errors.As(err, &ie) && ie.ChallengeFailed() {
		ui.Warning("DNS may not be pointing to this server.")
	}
	a.record("ssl add", site, err, "HTTPS enabled for "+site+".")
}

// sslDNS prints where domain resolves and reports whether it reaches
// this host. A lookup error counts as not reaching it.
func (a *app) sslDNS(ctx context.Context, domain string) bool {
	check, err := certbot.NewResolver().CheckDNS(ctx, domain)
	if err != nil {
		ui.Warning("DNS lookup for %s failed: %v", domain, err)
		return false
	}
	if len(check.Addresses) == 0 {
		ui.Warning("%s has no A or AAAA records.", domain)
		return false
	}
	ui.KeyValue("Resolves to", strings.Join(check.Addresses, ", "))
	ui.KeyValue("This host", strings.Join(check.Local, ", "))
	if !check.PointsHere() {
		ui.Warning("%s does not point to this server.", domain)
		return false
	}
	ui.Success("%s points to this server.", domain)
	return true
}

func (a *app) sslList(ctx context.Context) {
	certs, err := a.certbot().List(ctx)
	if err != nil {
		ui.Error("%v", err)
		return
	}
	if len(certs) == 0 {
		ui.Warning("No certificates found.")
		return
	}
	var rows [][]string
	for _, c := range certs {
		rows = append(rows, []string{c.Name, strings.Join(c.Domains, " "), c.Expiry})
	}
	ui.Table([]string{"NAME", "DOMAINS", "EXPIRY"}, rows)
}

func (a *app) renewOptions(ctx context.Context) (certbot.RenewOptions, bool) {
	i, ok := a.prompt.Select("Renew:", []string{"All certificates", "Specific certificate", "Dry run (test)"})
	if !ok {
		return certbot.RenewOptions{}, false
	}
	switch i {
	case 0:
		return certbot.RenewOptions{All: true}, true
	case 2:
		return certbot.RenewOptions{All: true, DryRun: true}, true
	}
	names := a.certbot().Names(ctx)
	if len(names) == 0 {
		ui.Warning("No certificates found.")
		return certbot.RenewOptions{}, false
	}
	j, ok := a.prompt.Select("Select certificate:", names)
	if !ok {
		return certbot.RenewOptions{}, false
	}
	return certbot.RenewOptions{CertName: names[j]}, true
}

func (a *app) sslRenew(ctx context.Context, opts certbot.RenewOptions) {
	ui.Dim("Running certbot renew...")
	out, err := a.certbot().Renew(ctx, opts)
	ui.Block(out)
	msg := "Certificates renewed."
	if opts.DryRun {
		msg = "Dry run succeeded."
	}
	a.record("ssl renew", opts.CertName, err, msg)
}

func (a *app) sslDelete(ctx context.Context, name string) {
	if name == "" {
		names := a.certbot().Names(ctx)
		if len(names) == 0 {
			ui.Warning("No certificates found.")
			return
		}
		i, ok := a.prompt.Select("Select certificate to delete:", names)
		if !ok {
			return
		}
		name = names[i]
	}
	if !a.prompt.Confirm("Delete certificate "+name+"?", false) {
		return
	}
	a.record("ssl delete", name, a.certbot().Delete(ctx, name), "Certificate deleted.")
}

func (a *app) sslTimer(ctx context.Context) {
	out, ok := a.certbot().TimerStatus(ctx)
	ui.Block(out)
	if !ok {
		ui.Warning("certbot.timer is not active. Certificates will not renew automatically.")
	}
}
