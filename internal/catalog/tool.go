package catalog

import (
	"github.com/msalah0e/zappy/internal/platform"
)

// Kind is how a tool gets installed.
type Kind string

const (
	KindPackage Kind = "package"
	KindScript  Kind = "script"
)

// Strategy names a built-in installer routine for script tools.
type Strategy string

const (
	StrategyNVM       Strategy = "nvm"
	StrategyOpencode  Strategy = "opencode"
	StrategyClaude    Strategy = "claude"
	StrategyRustup    Strategy = "rustup"
	StrategyGoTarball Strategy = "go-tarball"
	StrategyHomebrew  Strategy = "homebrew"
)

// Strategies lists every strategy the installer implements.
var Strategies = []Strategy{
	StrategyNVM,
	StrategyOpencode,
	StrategyClaude,
	StrategyRustup,
	StrategyGoTarball,
	StrategyHomebrew,
}

// DefaultKey is the packages fallback used when no manager key matches.
const DefaultKey = "default"

// Tool is one installable entry in the catalog.
type Tool struct {
	Name        string            `toml:"name"`
	Label       string            `toml:"label"`
	Description string            `toml:"description"`
	Kind        Kind              `toml:"kind"`
	Command     string            `toml:"command"`
	Commands    map[string]string `toml:"commands"`
	Packages    map[string]string `toml:"packages"`
	Strategy    Strategy          `toml:"strategy"`
	Verify      string            `toml:"verify"`
}

// DisplayName returns the label, or the name when no label is set.
func (t Tool) DisplayName() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Name
}

// PackageName resolves the package for a manager: exact key, then
// "default", then the tool name.
func (t Tool) PackageName(pm platform.PackageManager) string {
	if p, ok := t.Packages[pm.String()]; ok && p != "" {
		return p
	}
	if p, ok := t.Packages[DefaultKey]; ok && p != "" {
		return p
	}
	return t.Name
}

// Binary is the executable probed to detect the tool under pm.
func (t Tool) Binary(pm platform.PackageManager) string {
	if c, ok := t.Commands[pm.String()]; ok && c != "" {
		return c
	}
	if t.Command != "" {
		return t.Command
	}
	return t.Name
}

// DetectScript is the shell snippet whose exit status decides presence.
func (t Tool) DetectScript(pm platform.PackageManager) string {
	if t.Verify != "" {
		return t.Verify
	}
	return "command -v " + t.Binary(pm)
}

// IsScript reports whether the tool uses an installer strategy.
func (t Tool) IsScript() bool {
	return t.Kind == KindScript
}

func validStrategy(s Strategy) bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}
