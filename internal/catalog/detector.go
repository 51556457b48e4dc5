package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
)

// DetectTimeout bounds a single detection probe.
const DetectTimeout = 10 * time.Second

// Detected holds detection results for a single tool.
type Detected struct {
	Tool      Tool
	Installed bool
	Version   string
}

// Detector answers "is this tool present right now" through the runner.
// A probe that cannot launch counts as absent.
type Detector struct {
	Runner   runner.Runner
	Platform platform.Descriptor
}

// IsInstalled runs the tool's detection script; exit 0 means present.
func (d Detector) IsInstalled(ctx context.Context, t Tool) bool {
	c := runner.Shell(t.DetectScript(d.Platform.Manager))
	c.Timeout = DetectTimeout
	return d.Runner.Run(ctx, c).OK()
}

// DetectOne checks a tool and, when present, asks it for a version.
func (d Detector) DetectOne(ctx context.Context, t Tool) Detected {
	dt := Detected{Tool: t}
	if !d.IsInstalled(ctx, t) {
		return dt
	}
	dt.Installed = true

	bin := t.Binary(d.Platform.Manager)
	c := runner.Shell(bin + " --version 2>&1 | head -1")
	c.Timeout = DetectTimeout
	if res := d.Runner.Run(ctx, c); res.OK() {
		dt.Version = ExtractVersion(res.Output())
	}
	return dt
}

// Detect checks every tool sequentially, in order.
func (d Detector) Detect(ctx context.Context, tools []Tool) []Detected {
	results := make([]Detected, 0, len(tools))
	for _, t := range tools {
		results = append(results, d.DetectOne(ctx, t))
	}
	return results
}

// Missing returns 0-based indices of tools that are not installed.
func (d Detector) Missing(ctx context.Context, c *Catalog) []int {
	var missing []int
	for i, t := range c.All() {
		if !d.IsInstalled(ctx, t) {
			missing = append(missing, i)
		}
	}
	return missing
}

// ExtractVersion pulls a version-looking field out of command output.
func ExtractVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		for _, f := range fields {
			if f[0] >= '0' && f[0] <= '9' {
				return strings.TrimSuffix(f, ",")
			}
			if len(f) > 1 && containsVersion(f) {
				return strings.TrimSuffix(f, ",")
			}
		}
		return fields[len(fields)-1]
	}
	return strings.TrimSpace(output)
}

// containsVersion checks for a digit followed by a dot, as in "go1.24.0".
func containsVersion(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] >= '0' && s[i] <= '9' && s[i+1] == '.' {
			return true
		}
	}
	return false
}
