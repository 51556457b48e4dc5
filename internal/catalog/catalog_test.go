package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/msalah0e/zappy/internal/platform"
	"github.com/msalah0e/zappy/internal/runner"
)

func sampleTools() []Tool {
	return []Tool{
		{Name: "htop", Description: "Interactive process viewer", Kind: KindPackage, Command: "htop"},
		{
			Name:        "fd",
			Description: "Fast find alternative",
			Kind:        KindPackage,
			Command:     "fd",
			Commands:    map[string]string{"apt": "fdfind"},
			Packages:    map[string]string{"apt": "fd-find", "dnf": "fd-find"},
		},
		{Name: "go", Label: "Go", Description: "Install Go (official tarball)", Kind: KindScript, Strategy: StrategyGoTarball, Command: "go"},
		{Name: "rust", Label: "Rust", Description: "Install Rust via rustup", Kind: KindScript, Strategy: StrategyRustup, Command: "rustc"},
	}
}

func mustNew(t *testing.T, tools []Tool) *Catalog {
	t.Helper()
	c, err := New(tools)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c := mustNew(t, sampleTools())
	if c.Len() != 4 {
		t.Errorf("expected 4 tools, got %d", c.Len())
	}
	if c.All()[2].Name != "go" {
		t.Errorf("insertion order not preserved: %v", c.Names([]int{0, 1, 2, 3}))
	}
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name  string
		tools []Tool
		want  string
	}{
		{"duplicate", []Tool{{Name: "a", Kind: KindPackage}, {Name: "a", Kind: KindPackage}}, "duplicate"},
		{"unknown kind", []Tool{{Name: "a", Kind: "magic"}}, "unknown kind"},
		{"missing strategy", []Tool{{Name: "a", Kind: KindScript}}, "unknown strategy"},
		{"bad strategy", []Tool{{Name: "a", Kind: KindScript, Strategy: "curl"}}, "unknown strategy"},
		{"no name", []Tool{{Kind: KindPackage}}, "no name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tools)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestGetAndIndex(t *testing.T) {
	c := mustNew(t, sampleTools())

	tool := c.Get("fd")
	if tool == nil {
		t.Fatal("Get(fd) returned nil")
	}
	if tool.Description != "Fast find alternative" {
		t.Errorf("unexpected description %q", tool.Description)
	}
	if c.Get("nonexistent") != nil {
		t.Error("Get(nonexistent) should return nil")
	}
	if c.Index("rust") != 3 || c.Index("nope") != -1 {
		t.Errorf("Index: got rust=%d nope=%d", c.Index("rust"), c.Index("nope"))
	}
}

func TestNames(t *testing.T) {
	c := mustNew(t, sampleTools())
	got := strings.Join(c.Names([]int{0, 2, 9, -1}), ",")
	if got != "htop,go" {
		t.Errorf("Names: expected htop,go, got %s", got)
	}
}

func TestSearch(t *testing.T) {
	c := mustNew(t, sampleTools())

	tests := []struct {
		query    string
		expected int
	}{
		{"htop", 1},
		{"find", 1},
		{"install", 2},
		{"script", 2},
		{"RUST", 1},
		{"nonexistent", 0},
	}
	for _, tt := range tests {
		results := c.Search(tt.query)
		if len(results) != tt.expected {
			t.Errorf("Search(%q): expected %d results, got %d", tt.query, tt.expected, len(results))
		}
	}
}

func TestByKind(t *testing.T) {
	c := mustNew(t, sampleTools())
	if n := len(c.ByKind(KindPackage)); n != 2 {
		t.Errorf("expected 2 package tools, got %d", n)
	}
	if n := len(c.ByKind(KindScript)); n != 2 {
		t.Errorf("expected 2 script tools, got %d", n)
	}
}

func TestPackageName(t *testing.T) {
	tool := Tool{Name: "fd", Packages: map[string]string{"apt": "fd-find", "default": "fd-generic"}}
	bare := Tool{Name: "htop"}

	tests := []struct {
		tool Tool
		pm   platform.PackageManager
		want string
	}{
		{tool, platform.APT, "fd-find"},
		{tool, platform.Pacman, "fd-generic"},
		{bare, platform.DNF, "htop"},
		{bare, platform.Unknown, "htop"},
	}
	for _, tt := range tests {
		if got := tt.tool.PackageName(tt.pm); got != tt.want {
			t.Errorf("PackageName(%s, %s): expected %q, got %q", tt.tool.Name, tt.pm, tt.want, got)
		}
	}
}

func TestDetectScript(t *testing.T) {
	fd := sampleTools()[1]
	if got := fd.DetectScript(platform.APT); got != "command -v fdfind" {
		t.Errorf("apt: got %q", got)
	}
	if got := fd.DetectScript(platform.DNF); got != "command -v fd" {
		t.Errorf("dnf: got %q", got)
	}
	noCmd := Tool{Name: "tree"}
	if got := noCmd.DetectScript(platform.APT); got != "command -v tree" {
		t.Errorf("fallback: got %q", got)
	}
	verified := Tool{Name: "go", Command: "go", Verify: "test -x /usr/local/go/bin/go"}
	if got := verified.DetectScript(platform.APT); got != verified.Verify {
		t.Errorf("verify override: got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	tools := sampleTools()
	if tools[0].DisplayName() != "htop" || tools[2].DisplayName() != "Go" {
		t.Errorf("DisplayName: got %q and %q", tools[0].DisplayName(), tools[2].DisplayName())
	}
}

func TestDetector(t *testing.T) {
	f := runner.NewFake().
		On("sh -c command -v htop", runner.Result{Stdout: "/usr/bin/htop\n"}).
		On("sh -c htop --version 2>&1 | head -1", runner.Result{Stdout: "htop 3.3.0\n"}).
		Fail("sh -c command -v fdfind")
	d := Detector{Runner: f, Platform: platform.Descriptor{Manager: platform.APT}}
	ctx := context.Background()
	tools := sampleTools()

	got := d.DetectOne(ctx, tools[0])
	if !got.Installed || got.Version != "3.3.0" {
		t.Errorf("htop: expected installed 3.3.0, got %+v", got)
	}
	if d.IsInstalled(ctx, tools[1]) {
		t.Error("fd should be absent when fdfind probe fails")
	}

	c := mustNew(t, tools[:2])
	missing := d.Missing(ctx, c)
	if len(missing) != 1 || missing[0] != 1 {
		t.Errorf("Missing: expected [1], got %v", missing)
	}
}

func TestDetectorLaunchFailureIsAbsent(t *testing.T) {
	f := runner.NewFake().On("sh -c command -v htop", runner.Result{ExitCode: runner.ExitLaunchFailure, Stderr: "Command not found: sh"})
	d := Detector{Runner: f, Platform: platform.Descriptor{Manager: platform.APT}}
	if d.IsInstalled(context.Background(), sampleTools()[0]) {
		t.Error("launch failure must read as absent")
	}
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.2.3", "1.2.3"},
		{"htop 3.3.0", "3.3.0"},
		{"go version go1.24.0 linux/amd64", "go1.24.0"},
		{"rustc 1.80.1 (3f5fd8dd4 2024-08-06)", "1.80.1"},
		{"Docker version 27.1.1, build 6312585", "27.1.1"},
		{"\n\nv2.0.0\n", "v2.0.0"},
		{"single", "single"},
	}
	for _, tt := range tests {
		if got := ExtractVersion(tt.input); got != tt.expected {
			t.Errorf("ExtractVersion(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}
