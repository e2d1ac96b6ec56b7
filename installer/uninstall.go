package installer

import (
	"context"

	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/platform"
	"github.com/aseprite-builder/aseprite-builder/runner"
)

// Uninstall removes the install for the detected OS. It must run as root.
func (i *Installer) Uninstall(ctx context.Context) error {
	if err := platform.RequireRoot(i.IsRoot, "uninstall"); err != nil {
		return err
	}
	return i.uninstall(ctx)
}

func (i *Installer) uninstall(ctx context.Context) error {
	switch i.Platform.OS {
	case platform.Linux:
		return i.UninstallLinux(ctx)
	case platform.Darwin:
		return i.UninstallMacOS(ctx)
	default:
		return i.unsupported()
	}
}

// UninstallLinux removes the install dir and desktop file. Missing targets
// are skipped.
func (i *Installer) UninstallLinux(ctx context.Context) error {
	ctx = i.withPlatform(ctx)
	paths := i.Config.Paths

	if err := i.removeIfExists(ctx, runner.Step{
		Args:       []string{"rm", "-rf", paths.InstallDir},
		Privileged: true,
		Success:    "Aseprite directory removed.",
		Failure:    "Failed to remove Aseprite directory.",
	}); err != nil {
		return err
	}
	if err := i.removeIfExists(ctx, runner.Step{
		Args:       []string{"rm", paths.DesktopFile},
		Privileged: true,
		Success:    "Aseprite desktop file removed.",
		Failure:    "Failed to remove Aseprite desktop file.",
	}); err != nil {
		return err
	}
	if err := i.removeManifest(); err != nil {
		return err
	}
	log.G(ctx).Info("Aseprite uninstalled successfully on Linux.")
	return nil
}

// UninstallMacOS removes the app bundle and the bundle staging dir.
func (i *Installer) UninstallMacOS(ctx context.Context) error {
	ctx = i.withPlatform(ctx)
	paths := i.Config.Paths

	if err := i.removeIfExists(ctx, runner.Step{
		Args:       []string{"rm", "-rf", paths.AppBundle},
		Privileged: true,
		Success:    "Aseprite.app removed from Applications.",
		Failure:    "Failed to remove Aseprite.app from Applications.",
	}); err != nil {
		return err
	}
	if err := i.removeIfExists(ctx, runner.Step{
		Args:    []string{"rm", "-rf", paths.BundleDir},
		Success: "Bundle directory removed.",
		Failure: "Failed to remove bundle directory.",
	}); err != nil {
		return err
	}
	if err := i.removeManifest(); err != nil {
		return err
	}
	log.G(ctx).Info("Aseprite uninstalled successfully on MacOS.")
	return nil
}

// removeIfExists runs step when its last argument exists.
func (i *Installer) removeIfExists(ctx context.Context, step runner.Step) error {
	target := step.Args[len(step.Args)-1]
	if !exists(target) {
		log.G(ctx).Debugf("Nothing to remove at %s", target)
		return nil
	}
	return i.Runner.Run(ctx, step)
}
