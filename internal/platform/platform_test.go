package platform

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/msalah0e/zappy/internal/runner"
)

func noProbe(string) bool { return false }

func TestDetectFrom(t *testing.T) {
	tests := []struct {
		name    string
		release string
		probe   func(string) bool
		want    PackageManager
		family  Family
	}{
		{"ubuntu by id", "ID=ubuntu\nVERSION_ID=\"24.04\"\nVERSION_CODENAME=noble\n", noProbe, APT, Debian},
		{"fedora by id", "ID=fedora\n", noProbe, DNF, RHEL},
		{"rocky by id", "ID=\"rocky\"\nID_LIKE=\"rhel centos fedora\"\n", noProbe, DNF, RHEL},
		{"arch by id", "ID=arch\n", noProbe, Pacman, Arch},
		{"alpine by id", "ID=alpine\n", noProbe, APK, Alpine},
		{"tumbleweed by id", "ID=\"opensuse-tumbleweed\"\nID_LIKE=\"opensuse suse\"\n", noProbe, Zypper, SUSE},
		{"debian derivative by id_like", "ID=kali\nID_LIKE=debian\n", noProbe, APT, Debian},
		{"rhel derivative by id_like", "ID=ol\nID_LIKE=\"fedora\"\n", noProbe, DNF, RHEL},
		{"suse derivative by id_like", "ID=gecko\nID_LIKE=\"suse\"\n", noProbe, Zypper, SUSE},
		{"probe yum", "ID=amzn\n", func(s string) bool { return s == "yum" }, YUM, FamilyOther},
		{"probe order prefers apt", "", func(s string) bool { return s == "apt" || s == "apk" }, APT, FamilyOther},
		{"unknown", "ID=plan9\n", noProbe, Unknown, FamilyOther},
		{"empty file nil probe", "", nil, Unknown, FamilyOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DetectFrom(strings.NewReader(tt.release), tt.probe)
			if d.Manager != tt.want {
				t.Errorf("Manager: expected %s, got %s", tt.want, d.Manager)
			}
			if d.Family() != tt.family {
				t.Errorf("Family: expected %s, got %s", tt.family, d.Family())
			}
		})
	}
}

func TestDetectFromFields(t *testing.T) {
	release := `# comment
NAME="Ubuntu"
ID=ubuntu
ID_LIKE=debian
VERSION_ID="22.04"
VERSION_CODENAME=jammy
`
	d := DetectFrom(strings.NewReader(release), noProbe)
	if d.Name != "Ubuntu" || d.Version != "22.04" || d.Codename != "jammy" {
		t.Errorf("unexpected descriptor: %+v", d)
	}
	if !reflect.DeepEqual(d.IDLike, []string{"debian"}) {
		t.Errorf("IDLike: got %v", d.IDLike)
	}
	if d.String() != "Ubuntu 22.04 (apt)" {
		t.Errorf("String: got %q", d.String())
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		pm      PackageManager
		install []string
		update  []string
	}{
		{APT, []string{"apt", "install", "-y", "htop"}, []string{"apt", "update"}},
		{DNF, []string{"dnf", "install", "-y", "htop"}, []string{"dnf", "check-update"}},
		{YUM, []string{"yum", "install", "-y", "htop"}, []string{"yum", "check-update"}},
		{Pacman, []string{"pacman", "-S", "--noconfirm", "htop"}, []string{"pacman", "-Sy"}},
		{APK, []string{"apk", "add", "htop"}, []string{"apk", "update"}},
		{Zypper, []string{"zypper", "install", "-y", "htop"}, []string{"zypper", "refresh"}},
	}
	for _, tt := range tests {
		d := Descriptor{Manager: tt.pm}
		if got := d.InstallCommand("htop"); !reflect.DeepEqual(got, tt.install) {
			t.Errorf("%s InstallCommand: expected %v, got %v", tt.pm, tt.install, got)
		}
		if got := d.UpdateCommand(); !reflect.DeepEqual(got, tt.update) {
			t.Errorf("%s UpdateCommand: expected %v, got %v", tt.pm, tt.update, got)
		}
		if !d.Supported() {
			t.Errorf("%s should be supported", tt.pm)
		}
	}
}

func TestUnknownManagerSentinel(t *testing.T) {
	d := Descriptor{}
	if d.Supported() {
		t.Error("unknown manager should not be supported")
	}
	if !IsSentinel(d.InstallCommand("htop")) {
		t.Errorf("expected sentinel, got %v", d.InstallCommand("htop"))
	}
	if !IsSentinel(d.UpdateCommand()) {
		t.Errorf("expected sentinel, got %v", d.UpdateCommand())
	}
	if IsSentinel([]string{"apt", "update"}) {
		t.Error("apt update is not the sentinel")
	}

	f := runner.NewFake()
	if err := d.Install(context.Background(), f, "htop"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if len(f.Calls) != 0 {
		t.Errorf("sentinel must never run, got %v", f.Lines())
	}
}

func TestInstallElevates(t *testing.T) {
	f := runner.NewFake()
	d := Descriptor{Manager: APT}
	if err := d.Install(context.Background(), f, "nginx", "certbot"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	c, ok := f.Find("apt install -y nginx certbot")
	if !ok || !c.Elevate {
		t.Errorf("expected elevated apt install, got %v", f.Lines())
	}
}

func TestUpdateIndexCheckUpdate(t *testing.T) {
	f := runner.NewFake().On("dnf check-update", runner.Result{ExitCode: 100})
	d := Descriptor{Manager: DNF}
	if err := d.UpdateIndex(context.Background(), f); err != nil {
		t.Errorf("exit 100 from check-update should not fail: %v", err)
	}

	f = runner.NewFake().On("apt update", runner.Result{ExitCode: 100})
	d = Descriptor{Manager: APT}
	if err := d.UpdateIndex(context.Background(), f); err == nil {
		t.Error("apt update exit 100 should fail")
	}
}

func TestParsePackageManager(t *testing.T) {
	for _, pm := range probeOrder {
		got, ok := ParsePackageManager(pm.String())
		if !ok || got != pm {
			t.Errorf("ParsePackageManager(%q): got %s, %v", pm, got, ok)
		}
	}
	if _, ok := ParsePackageManager("default"); ok {
		t.Error("default is not a package manager")
	}
}
