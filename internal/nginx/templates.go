package nginx

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Template is one of the site layouts zappy can generate.
type Template string

const (
	Proxy    Template = "proxy"
	ProxyWS  Template = "proxy-ws"
	Static   Template = "static"
	PHP      Template = "php"
	Redirect Template = "redirect"
)

const phpSocket = "/run/php/php-fpm.sock"

// Templates lists the layouts in menu order.
var Templates = []Template{Proxy, ProxyWS, Static, PHP, Redirect}

// Description is the menu label for a layout.
func (t Template) Description() string {
	switch t {
	case Proxy:
		return "Reverse Proxy (default)"
	case ProxyWS:
		return "Reverse Proxy with WebSocket support"
	case Static:
		return "Static file serving"
	case PHP:
		return "PHP application (php-fpm)"
	case Redirect:
		return "HTTP redirect"
	}
	return string(t)
}

func (t Template) file() string {
	return string(t) + ".conf.tmpl"
}

// NeedsBackend reports whether the layout proxies to a backend URL.
func (t Template) NeedsBackend() bool {
	return t == Proxy || t == ProxyWS
}

// NeedsRoot reports whether the layout serves files from a document root.
func (t Template) NeedsRoot() bool {
	return t == Static || t == PHP
}

// SiteConfig holds the values substituted into a layout.
type SiteConfig struct {
	Template    Template
	Domain      string
	ProxyPass   string
	Root        string
	RedirectURL string
	PHPSocket   string
	LogDir      string
}

// DefaultRoot is the document root offered for a new static or PHP site.
func DefaultRoot(domain string) string {
	return "/var/www/" + domain
}

// Render produces the server block for c. Missing optional values get
// their defaults; an unknown layout falls back to Proxy.
func Render(c SiteConfig) (string, error) {
	if c.Domain == "" {
		return "", fmt.Errorf("render: domain is required")
	}
	if c.Root == "" {
		c.Root = DefaultRoot(c.Domain)
	}
	if c.RedirectURL == "" {
		c.RedirectURL = "https://" + c.Domain
	}
	if c.PHPSocket == "" {
		c.PHPSocket = phpSocket
	}
	if c.LogDir == "" {
		c.LogDir = "/var/log/nginx"
	}
	if templates.Lookup(c.Template.file()) == nil {
		c.Template = Proxy
	}
	if c.Template.NeedsBackend() && c.ProxyPass == "" {
		return "", fmt.Errorf("render %s: backend URL is required", c.Domain)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, c.Template.file(), c); err != nil {
		return "", fmt.Errorf("render %s: %w", c.Domain, err)
	}
	return buf.String(), nil
}
