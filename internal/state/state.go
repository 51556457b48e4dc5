// Package state remembers which tools zappy itself installed.
package state

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/zappy/internal/config"
)

// InstalledTool tracks metadata about a tool installed by zappy.
type InstalledTool struct {
	Version     string    `toml:"version"`
	Method      string    `toml:"method"`  // "apt", "dnf", ... or "script:<strategy>"
	Package     string    `toml:"package"` // package name, empty for script tools
	InstalledAt time.Time `toml:"installed_at"`
	UpdatedAt   time.Time `toml:"updated_at"`
}

// State is the on-disk record of managed installations.
type State struct {
	Installed map[string]InstalledTool `toml:"installed"`
}

func statePath() string {
	return filepath.Join(config.ConfigDir(), "state.toml")
}

// Load reads the state file, returning empty state if it doesn't exist.
func Load() *State {
	s := &State{Installed: make(map[string]InstalledTool)}
	data, err := os.ReadFile(statePath())
	if err != nil {
		return s
	}
	_ = toml.Unmarshal(data, s)
	if s.Installed == nil {
		s.Installed = make(map[string]InstalledTool)
	}
	return s
}

// Save writes the state file to disk.
func Save(s *State) error {
	path := statePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(s)
}

// Record adds or refreshes a tool, keeping its first install time.
func Record(name, version, method, pkg string) error {
	s := Load()
	now := time.Now()
	entry, exists := s.Installed[name]
	if !exists {
		entry.InstalledAt = now
	}
	entry.Version = version
	entry.Method = method
	entry.Package = pkg
	entry.UpdatedAt = now
	s.Installed[name] = entry
	return Save(s)
}

// Remove deletes a tool from the state.
func Remove(name string) error {
	s := Load()
	delete(s.Installed, name)
	return Save(s)
}

// IsInstalled checks if a tool is tracked in state.
func IsInstalled(name string) bool {
	_, ok := Load().Installed[name]
	return ok
}

// Names returns tracked tool names in sorted order.
func Names() []string {
	s := Load()
	names := make([]string, 0, len(s.Installed))
	for n := range s.Installed {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
