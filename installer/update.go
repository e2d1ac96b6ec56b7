package installer

import (
	"context"

	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/platform"
)

// Update uninstalls and reinstalls for the detected OS. It runs as the
// invoking user like Install; removals go through sudo. A failed install
// leaves the previous one removed.
func (i *Installer) Update(ctx context.Context) error {
	if i.Platform.OS != platform.Linux && i.Platform.OS != platform.Darwin {
		return i.unsupported()
	}
	if err := platform.RequireNotRoot(i.IsRoot, "update"); err != nil {
		return err
	}

	log.G(ctx).Info("Removing the current installation")
	if err := i.uninstall(ctx); err != nil {
		return err
	}
	log.G(ctx).Info("Installing the latest release")
	return i.Install(ctx)
}
