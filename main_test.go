package main

import (
	"testing"

	"github.com/msalah0e/zappy/internal/catalog"
	"github.com/msalah0e/zappy/internal/platform"
)

var managers = []platform.PackageManager{
	platform.APT, platform.DNF, platform.YUM, platform.Pacman, platform.APK, platform.Zypper,
}

func TestEmbeddedCatalog(t *testing.T) {
	cat, err := catalog.LoadFromFS(catalogFS, "catalog")
	if err != nil {
		t.Fatalf("LoadFromFS: %v", err)
	}
	if cat.Len() != 17 {
		t.Errorf("catalog has %d tools, want 17", cat.Len())
	}

	// Selector indices are 1-based positions in this order.
	if got := cat.Index("htop"); got != 0 {
		t.Errorf("htop at %d, want 0", got)
	}
	if got := cat.Index("brew"); got != 16 {
		t.Errorf("brew at %d, want 16", got)
	}

	for _, tool := range cat.All() {
		switch tool.Kind {
		case catalog.KindPackage:
			// Tools without a packages table install under their own name.
			for _, pm := range managers {
				if tool.PackageName(pm) == "" {
					t.Errorf("%s: no package name for %s", tool.Name, pm)
				}
			}
		case catalog.KindScript:
			if tool.Strategy == "" {
				t.Errorf("%s: script tool without strategy", tool.Name)
			}
		default:
			t.Errorf("%s: unknown kind %q", tool.Name, tool.Kind)
		}
	}
}

func TestEmbeddedCatalogPackageNames(t *testing.T) {
	cat, err := catalog.LoadFromFS(catalogFS, "catalog")
	if err != nil {
		t.Fatalf("LoadFromFS: %v", err)
	}
	tests := []struct {
		tool string
		pm   platform.PackageManager
		want string
	}{
		{"htop", platform.APT, "htop"},
		{"ripgrep", platform.Pacman, "ripgrep"},
		{"fd", platform.APT, "fd-find"},
		{"fd", platform.Pacman, "fd"},
	}
	for _, tt := range tests {
		tool := cat.Get(tt.tool)
		if tool == nil {
			t.Fatalf("%s missing from catalog", tt.tool)
		}
		if got := tool.PackageName(tt.pm); got != tt.want {
			t.Errorf("%s on %s: expected %q, got %q", tt.tool, tt.pm, tt.want, got)
		}
	}
}
