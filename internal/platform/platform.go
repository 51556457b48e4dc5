package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/msalah0e/zappy/internal/runner"
)

// OSReleasePath is the file read by Detect.
const OSReleasePath = "/etc/os-release"

// ErrUnsupported is returned when no known package manager was found.
var ErrUnsupported = errors.New("unsupported package manager")

// PackageManager is the closed set of package-manager families.
type PackageManager int

const (
	Unknown PackageManager = iota
	APT
	DNF
	YUM
	Pacman
	APK
	Zypper
)

// probeOrder is the executable-presence fallback order.
var probeOrder = []PackageManager{APT, DNF, YUM, Pacman, APK, Zypper}

func (pm PackageManager) String() string {
	switch pm {
	case APT:
		return "apt"
	case DNF:
		return "dnf"
	case YUM:
		return "yum"
	case Pacman:
		return "pacman"
	case APK:
		return "apk"
	case Zypper:
		return "zypper"
	case Unknown:
		return "unknown"
	}
	return "unknown"
}

// ParsePackageManager maps a manager key such as "apt" to its value.
func ParsePackageManager(s string) (PackageManager, bool) {
	for _, pm := range probeOrder {
		if pm.String() == s {
			return pm, true
		}
	}
	return Unknown, false
}

var byID = map[string]PackageManager{
	"debian":              APT,
	"ubuntu":              APT,
	"linuxmint":           APT,
	"pop":                 APT,
	"elementary":          APT,
	"zorin":               APT,
	"fedora":              DNF,
	"rhel":                DNF,
	"centos":              DNF,
	"rocky":               DNF,
	"almalinux":           DNF,
	"alma":                DNF,
	"arch":                Pacman,
	"manjaro":             Pacman,
	"alpine":              APK,
	"opensuse":            Zypper,
	"opensuse-leap":       Zypper,
	"opensuse-tumbleweed": Zypper,
	"sles":                Zypper,
}

var byIDLike = []struct {
	like string
	pm   PackageManager
}{
	{"debian", APT},
	{"ubuntu", APT},
	{"fedora", DNF},
	{"rhel", DNF},
	{"arch", Pacman},
	{"suse", Zypper},
}

// Descriptor identifies the host distribution and its package manager.
// It is computed once at startup and passed by value.
type Descriptor struct {
	ID       string
	Name     string
	Version  string
	Codename string
	IDLike   []string
	Manager  PackageManager
}

// Detect reads /etc/os-release and probes PATH with the given function.
func Detect(probe func(string) bool) Descriptor {
	f, err := os.Open(OSReleasePath)
	if err != nil {
		return DetectFrom(strings.NewReader(""), probe)
	}
	defer f.Close()
	return DetectFrom(f, probe)
}

// DetectFrom builds a Descriptor from os-release content. Resolution order:
// exact distro ID, then ID_LIKE, then probing executables, else Unknown.
func DetectFrom(r io.Reader, probe func(string) bool) Descriptor {
	kv := ParseOSRelease(r)
	d := Descriptor{
		ID:       strings.ToLower(kv["ID"]),
		Name:     kv["NAME"],
		Version:  kv["VERSION_ID"],
		Codename: kv["VERSION_CODENAME"],
		IDLike:   strings.Fields(strings.ToLower(kv["ID_LIKE"])),
	}
	if d.Name == "" {
		d.Name = "Linux"
	}
	d.Manager = resolveManager(d.ID, d.IDLike, probe)
	return d
}

func resolveManager(id string, idLike []string, probe func(string) bool) PackageManager {
	if pm, ok := byID[id]; ok {
		return pm
	}
	for _, entry := range byIDLike {
		for _, like := range idLike {
			if like == entry.like {
				return entry.pm
			}
		}
	}
	if probe != nil {
		for _, pm := range probeOrder {
			if probe(pm.String()) {
				return pm
			}
		}
	}
	return Unknown
}

// ParseOSRelease parses KEY=value lines, stripping optional quotes.
func ParseOSRelease(r io.Reader) map[string]string {
	kv := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		kv[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return kv
}

// Supported reports whether a known package manager was found.
func (d Descriptor) Supported() bool {
	return d.Manager != Unknown
}

func (d Descriptor) String() string {
	name := d.Name
	if d.Version != "" {
		name += " " + d.Version
	}
	return fmt.Sprintf("%s (%s)", name, d.Manager)
}

// sentinel is returned for an unknown manager. It must never be executed.
var sentinel = []string{"echo", "Unknown package manager"}

// IsSentinel reports whether argv is the unsupported-platform placeholder.
func IsSentinel(argv []string) bool {
	if len(argv) != len(sentinel) {
		return false
	}
	for i := range argv {
		if argv[i] != sentinel[i] {
			return false
		}
	}
	return true
}

// InstallCommand returns the argv that installs pkgs non-interactively.
func (d Descriptor) InstallCommand(pkgs ...string) []string {
	var prefix []string
	switch d.Manager {
	case APT:
		prefix = []string{"apt", "install", "-y"}
	case DNF:
		prefix = []string{"dnf", "install", "-y"}
	case YUM:
		prefix = []string{"yum", "install", "-y"}
	case Pacman:
		prefix = []string{"pacman", "-S", "--noconfirm"}
	case APK:
		prefix = []string{"apk", "add"}
	case Zypper:
		prefix = []string{"zypper", "install", "-y"}
	case Unknown:
		return append([]string(nil), sentinel...)
	default:
		return append([]string(nil), sentinel...)
	}
	return append(prefix, pkgs...)
}

// UpdateCommand returns the argv that refreshes the package index.
func (d Descriptor) UpdateCommand() []string {
	switch d.Manager {
	case APT:
		return []string{"apt", "update"}
	case DNF:
		return []string{"dnf", "check-update"}
	case YUM:
		return []string{"yum", "check-update"}
	case Pacman:
		return []string{"pacman", "-Sy"}
	case APK:
		return []string{"apk", "update"}
	case Zypper:
		return []string{"zypper", "refresh"}
	case Unknown:
		return append([]string(nil), sentinel...)
	}
	return append([]string(nil), sentinel...)
}

// Install installs packages with elevated privileges.
func (d Descriptor) Install(ctx context.Context, r runner.Runner, pkgs ...string) error {
	argv := d.InstallCommand(pkgs...)
	if IsSentinel(argv) {
		return ErrUnsupported
	}
	return runner.Do(ctx, r, runner.Sudo(argv...))
}

// UpdateIndex refreshes the package index. dnf/yum check-update exits 100
// when updates are pending, which is not a failure.
func (d Descriptor) UpdateIndex(ctx context.Context, r runner.Runner) error {
	argv := d.UpdateCommand()
	if IsSentinel(argv) {
		return ErrUnsupported
	}
	c := runner.Sudo(argv...)
	res := r.Run(ctx, c)
	if res.OK() || ((d.Manager == DNF || d.Manager == YUM) && res.ExitCode == 100) {
		return nil
	}
	return &runner.Error{Command: c, Result: res}
}

// Family groups distributions that share configuration conventions.
type Family int

const (
	FamilyOther Family = iota
	Debian
	RHEL
	Arch
	Alpine
	SUSE
)

func (f Family) String() string {
	switch f {
	case Debian:
		return "debian"
	case RHEL:
		return "rhel"
	case Arch:
		return "arch"
	case Alpine:
		return "alpine"
	case SUSE:
		return "suse"
	case FamilyOther:
		return "other"
	}
	return "other"
}

// Family classifies the distribution by ID and ID_LIKE.
func (d Descriptor) Family() Family {
	switch d.ID {
	case "debian", "ubuntu", "linuxmint", "pop", "elementary", "zorin":
		return Debian
	case "rhel", "centos", "fedora", "rocky", "almalinux", "alma":
		return RHEL
	case "arch", "manjaro":
		return Arch
	case "alpine":
		return Alpine
	case "opensuse", "opensuse-leap", "opensuse-tumbleweed", "sles":
		return SUSE
	}
	for _, like := range d.IDLike {
		switch {
		case like == "debian" || like == "ubuntu":
			return Debian
		case like == "rhel" || like == "fedora" || like == "centos":
			return RHEL
		case like == "arch":
			return Arch
		case strings.Contains(like, "suse"):
			return SUSE
		}
	}
	return FamilyOther
}
