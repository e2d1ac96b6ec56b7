package installer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/bundle"
	"github.com/aseprite-builder/aseprite-builder/cmake"
	"github.com/aseprite-builder/aseprite-builder/desktop"
	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/models"
	"github.com/aseprite-builder/aseprite-builder/platform"
	"github.com/aseprite-builder/aseprite-builder/recipe"
	"github.com/aseprite-builder/aseprite-builder/release"
	"github.com/aseprite-builder/aseprite-builder/runner"
)

// Install builds and installs for the detected OS.
func (i *Installer) Install(ctx context.Context) error {
	switch i.Platform.OS {
	case platform.Linux:
		return i.InstallLinux(ctx)
	case platform.Darwin:
		return i.InstallMacOS(ctx)
	default:
		return i.unsupported()
	}
}

func (i *Installer) InstallLinux(ctx context.Context) error {
	if err := platform.RequireNotRoot(i.IsRoot, "install"); err != nil {
		return err
	}
	if err := platform.RequireAPT(i.Platform); err != nil {
		return err
	}
	p, err := i.Recipe.Lookup(platform.Linux, i.Platform.Arch)
	if err != nil {
		return err
	}
	ctx = i.withPlatform(ctx)
	paths := i.Config.Paths

	if err := runner.RunAll(ctx, i.Runner, aptSteps(p.Packages)...); err != nil {
		return err
	}
	if err := i.ensureDirs(ctx, paths.DepsDir, paths.SourceDir, filepath.Dir(paths.DesktopFile)); err != nil {
		return err
	}
	if err := i.fetchSkia(ctx, p); err != nil {
		return err
	}
	rel, err := i.fetchSource(ctx)
	if err != nil {
		return err
	}
	if err := i.build(ctx, p); err != nil {
		return err
	}
	if err := i.moveToInstallDir(ctx); err != nil {
		return err
	}
	if err := i.installDesktopFile(ctx); err != nil {
		return err
	}
	if err := i.writeManifest(rel, paths.InstallDir); err != nil {
		return err
	}
	log.G(ctx).Infof("Aseprite %s installed to %s", rel.TagName, paths.InstallDir)
	return nil
}

func (i *Installer) InstallMacOS(ctx context.Context) error {
	if err := platform.RequireNotRoot(i.IsRoot, "install"); err != nil {
		return err
	}
	p, err := i.Recipe.Lookup(platform.Darwin, i.Platform.Arch)
	if err != nil {
		return err
	}
	ctx = i.withPlatform(ctx)
	paths := i.Config.Paths

	if i.Runner.Probe(ctx, "xcode-select", "-p") {
		log.G(ctx).Info("Command line developer tools already installed.")
	} else if err := i.Runner.Run(ctx, runner.Step{
		Args:    []string{"xcode-select", "--install"},
		Success: "Command line developer tools installed.",
		Failure: "Failed to install command line developer tools.",
	}); err != nil {
		return err
	}
	if err := i.Runner.Run(ctx, runner.Step{
		Args:    append([]string{"brew", "install"}, p.Packages...),
		Success: "Dependencies installed.",
		Failure: "Failed to install dependencies.",
	}); err != nil {
		return err
	}
	if err := i.ensureDirs(ctx, paths.DepsDir, paths.SourceDir); err != nil {
		return err
	}
	rel, err := i.fetchSource(ctx)
	if err != nil {
		return err
	}
	if err := i.fetchSkia(ctx, p); err != nil {
		return err
	}
	if err := i.build(ctx, p); err != nil {
		return err
	}

	b := &bundle.Bundler{
		Runner:     i.Runner,
		Downloader: i.Fetcher,
		Dir:        paths.BundleDir,
		TrialURL:   i.Config.TrialURL,
		Binary:     paths.BuiltBinary(),
		Data:       paths.BuiltData(),
	}
	app, err := b.Bundle(ctx)
	if err != nil {
		return err
	}
	// cp -R would nest the new bundle inside an existing one.
	if err := i.removeIfExists(ctx, runner.Step{
		Args:       []string{"rm", "-rf", paths.AppBundle},
		Privileged: true,
		Success:    "Previous Aseprite.app removed.",
		Failure:    "Failed to remove the previous Aseprite.app.",
	}); err != nil {
		return err
	}
	if err := i.Runner.Run(ctx, runner.Step{
		Args:       []string{"cp", "-R", app, paths.AppBundle},
		Privileged: true,
		Success:    "Aseprite.app copied to " + filepath.Dir(paths.AppBundle) + ".",
		Failure:    "Failed to copy Aseprite.app to " + filepath.Dir(paths.AppBundle) + ".",
	}); err != nil {
		return err
	}
	if err := i.writeManifest(rel, paths.AppBundle); err != nil {
		return err
	}
	log.G(ctx).Infof("Aseprite %s installed to %s", rel.TagName, paths.AppBundle)
	return nil
}

func aptSteps(packages []string) []runner.Step {
	return []runner.Step{
		{
			Args:       []string{"apt-get", "update"},
			Privileged: true,
			Success:    "Package index updated.",
			Failure:    "Failed to update the package index.",
		},
		{
			Args:       []string{"apt-get", "upgrade", "-y"},
			Privileged: true,
			Success:    "System upgraded.",
			Failure:    "Failed to upgrade the system.",
		},
		{
			Args:       append([]string{"apt-get", "install", "-y"}, packages...),
			Privileged: true,
			Success:    "Dependencies installed.",
			Failure:    "Failed to install dependencies.",
		},
	}
}

func (i *Installer) fetchSkia(ctx context.Context, p *recipe.Platform) error {
	_, err := i.Fetcher.Fetch(ctx, release.Request{
		Repo:      i.Config.SkiaRepo,
		AssetName: p.SkiaAsset,
		Dir:       i.Config.Paths.DepsDir,
	})
	return errors.Wrap(err, "fetch skia")
}

func (i *Installer) fetchSource(ctx context.Context) (*models.Release, error) {
	rel, err := i.Fetcher.Fetch(ctx, release.Request{
		Repo:   i.Config.AppRepo,
		Suffix: i.Config.SourceSuffix,
		Dir:    i.Config.Paths.SourceDir,
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch source")
	}
	return rel, nil
}

func (i *Installer) build(ctx context.Context, p *recipe.Platform) error {
	paths := i.Config.Paths
	if err := os.MkdirAll(paths.BuildDir(), 0755); err != nil {
		return errors.Wrapf(err, "create %s", paths.BuildDir())
	}
	c := cmake.ForPlatform(i.Recipe, p, paths.SourceDir, paths.BuildDir(), paths.DepsDir)
	return runner.RunAll(ctx, i.Runner, c.ConfigureStep(), c.BuildStep(i.Recipe.Target))
}

// moveToInstallDir moves every entry of the source tree into the install dir,
// replacing entries left by a previous install.
func (i *Installer) moveToInstallDir(ctx context.Context) error {
	src, dst := i.Config.Paths.SourceDir, i.Config.Paths.InstallDir

	if !exists(dst) {
		if err := i.Runner.Run(ctx, runner.Step{
			Args:       []string{"mkdir", "-p", dst},
			Privileged: true,
			Success:    "Directory " + dst + " created.",
			Failure:    "Failed to create " + dst + ".",
		}); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "read %s", src)
	}
	for _, e := range entries {
		// mv would nest a directory inside an existing one of the same name.
		if err := i.removeIfExists(ctx, runner.Step{
			Args:       []string{"rm", "-rf", filepath.Join(dst, e.Name())},
			Privileged: true,
			Failure:    "Failed to remove the previous " + e.Name() + ".",
		}); err != nil {
			return err
		}
		if err := i.Runner.Run(ctx, runner.Step{
			Args:       []string{"mv", filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())},
			Privileged: true,
			Failure:    "Failed to move " + e.Name() + " to " + dst + ".",
		}); err != nil {
			return err
		}
	}
	log.G(ctx).Infof("Moved files from %s to %s", src, dst)
	return nil
}

// installDesktopFile writes the launcher to the staging path, then moves it
// into place and marks it executable.
func (i *Installer) installDesktopFile(ctx context.Context) error {
	paths := i.Config.Paths
	if err := desktop.ForInstall(paths.InstallDir).WriteFile(paths.StagingDesktopFile); err != nil {
		return errors.Wrap(err, "write desktop file")
	}
	return runner.RunAll(ctx, i.Runner,
		runner.Step{
			Args:       []string{"mv", paths.StagingDesktopFile, paths.DesktopFile},
			Privileged: true,
			Success:    "Created desktop file at " + paths.DesktopFile,
			Failure:    "Failed to create the desktop file.",
		},
		runner.Step{
			Args:       []string{"chmod", "+x", paths.DesktopFile},
			Privileged: true,
			Success:    "Given execution permission to " + paths.DesktopFile,
			Failure:    "Failed to make the desktop file executable.",
		},
	)
}
