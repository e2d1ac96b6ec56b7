// Package platform detects the host the installer runs on and checks the
// privilege preconditions of each command.
package platform

import (
	"context"
	"os"
	"os/user"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/aseprite-builder/aseprite-builder/errdefs"
	"github.com/aseprite-builder/aseprite-builder/log"
)

const (
	Linux  = "linux"
	Darwin = "darwin"

	FamilyDebian = "debian"
)

// Info describes the host. Family is empty when the distribution could not
// be detected.
type Info struct {
	OS       string
	Arch     string
	Platform string
	Family   string
	Version  string
}

func (i Info) String() string {
	s := i.OS + "/" + i.Arch
	if i.Platform != "" {
		s += " (" + i.Platform + " " + i.Version + ")"
	}
	return s
}

// Detect reports OS and architecture from the Go runtime and, on Linux, the
// distribution through gopsutil. A failed distribution lookup is not fatal.
func Detect(ctx context.Context) (Info, error) {
	info := Info{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if info.OS != Linux && info.OS != Darwin {
		return info, errors.Wrapf(errdefs.ErrUnsupportedPlatform, "%s/%s", info.OS, info.Arch)
	}
	if info.OS != Linux {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return info, ctx.Err()
		}
		log.G(ctx).Debugf("Could not detect linux distribution: %v", err)
		return info, nil
	}
	info.Platform = strings.ToLower(strings.TrimSpace(platform))
	info.Family = normalizeFamily(family, info.Platform)
	info.Version = strings.TrimSpace(version)
	return info, nil
}

func normalizeFamily(family, platform string) string {
	family = strings.ToLower(strings.TrimSpace(family))
	switch family {
	case "debian", "ubuntu", "linuxmint", "pop", "elementary":
		return FamilyDebian
	case "":
		switch platform {
		case "debian", "ubuntu", "linuxmint", "pop", "elementary", "raspbian":
			return FamilyDebian
		}
	}
	return family
}

// RequireAPT fails unless the host is a Debian family distribution or its
// family is unknown, in which case apt is assumed.
func RequireAPT(info Info) error {
	if info.Family == "" || info.Family == FamilyDebian {
		return nil
	}
	return errors.Wrapf(errdefs.ErrUnsupportedPlatform, "%s uses %s packaging, only apt is supported", info.Platform, info.Family)
}

// IsRoot reports whether the effective user is root.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// RequireNotRoot fails when running as root.
func RequireNotRoot(isRoot bool, command string) error {
	if isRoot {
		return errors.Wrapf(errdefs.ErrPrivilege, "%s must not be run as root, it uses sudo where needed", command)
	}
	return nil
}

// RequireRoot fails unless running as root.
func RequireRoot(isRoot bool, command string) error {
	if !isRoot {
		return errors.Wrapf(errdefs.ErrPrivilege, "%s must be run as root", command)
	}
	return nil
}

// HomeDir returns the home directory of the invoking user. Under sudo this
// is the home of $SUDO_USER rather than root's.
func HomeDir() (string, error) {
	if name := os.Getenv("SUDO_USER"); name != "" && IsRoot() {
		if u, err := user.Lookup(name); err == nil && u.HomeDir != "" {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}
