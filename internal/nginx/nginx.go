// Package nginx manages server blocks in sites-available and
// sites-enabled and drives the nginx service.
package nginx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/msalah0e/zappy/internal/backup"
	"github.com/msalah0e/zappy/internal/runner"
)

var (
	ErrSiteExists     = errors.New("site already exists")
	ErrNoSite         = errors.New("site not found")
	ErrAlreadyEnabled = errors.New("site is already enabled")
	ErrNotEnabled     = errors.New("site is not enabled")
	ErrNoEditor       = errors.New("no text editor found (install micro, nano or vim)")
)

// Editors are tried in order by Edit.
var Editors = []string{"micro", "nano", "vim", "vi"}

// Site is one server block file.
type Site struct {
	Name       string
	ConfigPath string
	Enabled    bool
	SSL        bool
}

// Manager operates on one nginx installation.
type Manager struct {
	Runner    runner.Runner
	Backups   *backup.Store
	Available string
	Enabled   string
	LogDir    string
}

// ConfigPath is where a site's server block lives.
func (m *Manager) ConfigPath(name string) string {
	return filepath.Join(m.Available, name)
}

func (m *Manager) linkPath(name string) string {
	return filepath.Join(m.Enabled, name)
}

// Sites lists every file in sites-available, sorted by name. A site is
// enabled when sites-enabled holds a symlink to it.
func (m *Manager) Sites() ([]Site, error) {
	entries, err := os.ReadDir(m.Available)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.Available, err)
	}

	var sites []Site
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		s := Site{
			Name:       e.Name(),
			ConfigPath: m.ConfigPath(e.Name()),
			Enabled:    m.isEnabled(e.Name()),
		}
		if data, err := os.ReadFile(s.ConfigPath); err == nil {
			s.SSL = HasSSL(string(data))
		}
		sites = append(sites, s)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].Name < sites[j].Name })
	return sites, nil
}

func (m *Manager) isEnabled(name string) bool {
	target, err := os.Readlink(m.linkPath(name))
	if err != nil {
		return false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(m.Enabled, target)
	}
	return strings.HasPrefix(filepath.Clean(target), filepath.Clean(m.Available)+string(filepath.Separator))
}

// Site returns one site by name.
func (m *Manager) Site(name string) (Site, error) {
	sites, err := m.Sites()
	if err != nil {
		return Site{}, err
	}
	for _, s := range sites {
		if s.Name == name {
			return s, nil
		}
	}
	return Site{}, fmt.Errorf("%s: %w", name, ErrNoSite)
}

// HasSSL reports whether a server block terminates TLS.
func HasSSL(conf string) bool {
	return strings.Contains(conf, "listen 443") || strings.Contains(conf, "ssl_certificate")
}

// Exists reports whether a server block with this name is present.
func (m *Manager) Exists(name string) bool {
	_, err := os.Lstat(m.ConfigPath(name))
	return err == nil
}

// Create renders c into sites-available and checks the configuration.
// An existing file is replaced only when overwrite is set.
func (m *Manager) Create(ctx context.Context, c SiteConfig, overwrite bool) (string, error) {
	path := m.ConfigPath(c.Domain)
	if !overwrite && m.Exists(c.Domain) {
		return "", fmt.Errorf("%s: %w", c.Domain, ErrSiteExists)
	}
	if c.LogDir == "" {
		c.LogDir = m.LogDir
	}
	content, err := Render(c)
	if err != nil {
		return "", err
	}
	if err := runner.WriteFile(ctx, m.Runner, path, content); err != nil {
		return "", err
	}
	if err := m.Test(ctx); err != nil {
		return path, err
	}
	return path, nil
}

// Enable links a site into sites-enabled, tests and reloads. A failed
// test removes the link again.
func (m *Manager) Enable(ctx context.Context, name string) error {
	link := m.linkPath(name)
	if _, err := os.Lstat(link); err == nil {
		return fmt.Errorf("%s: %w", name, ErrAlreadyEnabled)
	}
	if err := runner.Do(ctx, m.Runner, runner.Sudo("ln", "-s", m.ConfigPath(name), link)); err != nil {
		return fmt.Errorf("enabling %s: %w", name, err)
	}
	if err := m.Test(ctx); err != nil {
		_ = runner.Remove(ctx, m.Runner, link)
		return fmt.Errorf("enabling %s, reverted: %w", name, err)
	}
	return m.Reload(ctx)
}

// Disable removes a site's link from sites-enabled.
func (m *Manager) Disable(ctx context.Context, name string) error {
	link := m.linkPath(name)
	if fi, err := os.Lstat(link); err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%s: %w", name, ErrNotEnabled)
	}
	if err := runner.Remove(ctx, m.Runner, link); err != nil {
		return fmt.Errorf("disabling %s: %w", name, err)
	}
	if err := m.Test(ctx); err != nil {
		return err
	}
	return m.Reload(ctx)
}

// Delete disables a site, backs its file up and removes it. The backup
// path is returned even when a later step fails.
func (m *Manager) Delete(ctx context.Context, name string) (string, error) {
	link := m.linkPath(name)
	if fi, err := os.Lstat(link); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		_ = runner.Remove(ctx, m.Runner, link)
	}

	saved, err := m.Backups.Save(ctx, "nginx", name, m.ConfigPath(name))
	if err != nil {
		return "", err
	}
	if err := runner.Remove(ctx, m.Runner, m.ConfigPath(name)); err != nil {
		return saved, fmt.Errorf("deleting %s: %w", name, err)
	}
	if err := m.Test(ctx); err != nil {
		return saved, err
	}
	return saved, m.Reload(ctx)
}

// Read returns a site's server block.
func (m *Manager) Read(ctx context.Context, name string) (string, error) {
	return runner.ReadFile(ctx, m.Runner, m.ConfigPath(name))
}

// Editor returns the first available editor from Editors.
func (m *Manager) Editor() (string, error) {
	for _, ed := range Editors {
		if m.Runner.LookPath(ed) {
			return ed, nil
		}
	}
	return "", ErrNoEditor
}

// Edit backs a site up and opens it in an editor attached to the
// terminal. The returned error is the post-edit configuration test;
// callers decide whether to Restore the backup.
func (m *Manager) Edit(ctx context.Context, name string) (string, error) {
	editor, err := m.Editor()
	if err != nil {
		return "", err
	}
	saved, err := m.Backups.Save(ctx, "nginx", name, m.ConfigPath(name))
	if err != nil {
		return "", err
	}
	c := runner.Sudo(editor, m.ConfigPath(name))
	c.Interactive = true
	m.Runner.Run(ctx, c)
	return saved, m.Test(ctx)
}

// Restore copies a backup back over a site's server block.
func (m *Manager) Restore(ctx context.Context, name, backupPath string) error {
	return m.Backups.Restore(ctx, backupPath, m.ConfigPath(name))
}

// TestError carries the output of a failed `nginx -t`.
type TestError struct {
	Output string
}

func (e *TestError) Error() string {
	if e.Output == "" {
		return "nginx configuration test failed"
	}
	return "nginx configuration test failed: " + e.Output
}

// Test runs `nginx -t`.
func (m *Manager) Test(ctx context.Context) error {
	res := m.Runner.Run(ctx, runner.Sudo("nginx", "-t"))
	if !res.OK() {
		return &TestError{Output: res.Diagnostic()}
	}
	return nil
}

// Reload asks systemd to reload nginx.
func (m *Manager) Reload(ctx context.Context) error {
	if err := runner.Do(ctx, m.Runner, runner.Sudo("systemctl", "reload", "nginx")); err != nil {
		return fmt.Errorf("reloading nginx: %w", err)
	}
	return nil
}

// Status returns `systemctl status nginx` output.
func (m *Manager) Status(ctx context.Context) string {
	res := m.Runner.Run(ctx, runner.Sudo("systemctl", "status", "nginx", "--no-pager"))
	return res.Combined()
}
