package state

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestState(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s := Load()
	if len(s.Installed) != 0 {
		t.Errorf("expected empty state, got %d tools", len(s.Installed))
	}

	if err := Record("fd", "9.0.0", "apt", "fd-find"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	s = Load()
	tool, ok := s.Installed["fd"]
	if !ok {
		t.Fatal("fd not found in state")
	}
	if tool.Package != "fd-find" || tool.Method != "apt" {
		t.Errorf("unexpected entry %+v", tool)
	}
	if tool.InstalledAt.IsZero() {
		t.Error("InstalledAt should be set")
	}
	first := tool.InstalledAt

	Record("fd", "10.1.0", "apt", "fd-find")
	s = Load()
	if s.Installed["fd"].Version != "10.1.0" {
		t.Errorf("expected updated version, got %q", s.Installed["fd"].Version)
	}
	if !s.Installed["fd"].InstalledAt.Equal(first) {
		t.Error("InstalledAt should survive updates")
	}

	if !IsInstalled("fd") {
		t.Error("fd should be tracked")
	}
	if IsInstalled("htop") {
		t.Error("htop should not be tracked")
	}

	Record("go", "go1.23.4", "script:go-tarball", "")
	if got := Names(); !reflect.DeepEqual(got, []string{"fd", "go"}) {
		t.Errorf("Names: got %v", got)
	}

	if err := Remove("fd"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if IsInstalled("fd") {
		t.Error("fd should be gone after Remove")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	os.MkdirAll(filepath.Join(dir, "zappy"), 0o755)
	os.WriteFile(filepath.Join(dir, "zappy", "state.toml"), []byte("not = [valid"), 0o644)

	s := Load()
	if s.Installed == nil {
		t.Fatal("Installed map should never be nil")
	}
}
