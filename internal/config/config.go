package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds zappy configuration.
type Config struct {
	UI      UIConfig      `toml:"ui"`
	Install InstallConfig `toml:"install"`
	Paths   PathsConfig   `toml:"paths"`
	Certbot CertbotConfig `toml:"certbot"`
	Hooks   HooksConfig   `toml:"hooks"`
}

// UIConfig controls display options.
type UIConfig struct {
	Color    bool `toml:"color"`
	Progress bool `toml:"progress"` // live progress table for batch installs
}

// InstallConfig controls batch installation.
type InstallConfig struct {
	TimeoutSeconds int  `toml:"timeout_seconds"`
	UpdateIndex    bool `toml:"update_index"`
	// NodeTarball installs Node.js system-wide from the official release
	// tarball instead of per-user through nvm.
	NodeTarball bool `toml:"node_tarball"`
}

// Timeout returns the per-command install timeout, zero meaning none.
func (c InstallConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PathsConfig locates the system files zappy manages.
type PathsConfig struct {
	NginxAvailable string `toml:"nginx_available"`
	NginxEnabled   string `toml:"nginx_enabled"`
	NginxLogDir    string `toml:"nginx_log_dir"`
	BackupDir      string `toml:"backup_dir"`
	SSHDConfig     string `toml:"sshd_config"`
	JailLocal      string `toml:"jail_local"`
	DockgeDir      string `toml:"dockge_dir"`
	StacksDir      string `toml:"stacks_dir"`
	AitermyDir     string `toml:"aitermy_dir"`
}

// CertbotConfig remembers certificate settings between runs.
type CertbotConfig struct {
	Email string `toml:"email"`
}

// HooksConfig defines lifecycle hook scripts run around each install.
type HooksConfig struct {
	PreInstall  string `toml:"pre_install"`
	PostInstall string `toml:"post_install"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		UI:      UIConfig{Color: true, Progress: true},
		Install: InstallConfig{TimeoutSeconds: 1800, UpdateIndex: true},
		Paths: PathsConfig{
			NginxAvailable: "/etc/nginx/sites-available",
			NginxEnabled:   "/etc/nginx/sites-enabled",
			NginxLogDir:    "/var/log/nginx",
			BackupDir:      "/var/backups/zappy",
			SSHDConfig:     "/etc/ssh/sshd_config",
			JailLocal:      "/etc/fail2ban/jail.local",
			DockgeDir:      "/opt/dockge",
			StacksDir:      "/opt/stacks",
			AitermyDir:     "/opt/aitermy",
		},
	}
}

// ConfigDir returns the zappy config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "zappy")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, falling back to defaults for anything
// missing or unreadable.
func Load() *Config {
	cfg := Default()
	data, err := os.ReadFile(Path())
	if err != nil {
		return cfg
	}
	_ = toml.Unmarshal(data, cfg)
	return cfg
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil
	}
	return Save(Default())
}
