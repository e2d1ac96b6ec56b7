// Package bundle assembles a macOS application bundle around a freshly built
// binary. The bundle skeleton (Info.plist, icons, entitlements) is copied
// out of the trial disk image; its executable and data tree are replaced.
package bundle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/runner"
)

const AppName = "Aseprite.app"

type Downloader interface {
	Download(ctx context.Context, url, path string) error
}

type Bundler struct {
	Runner     runner.Runner
	Downloader Downloader

	// Dir is the staging directory; the image is mounted below it.
	Dir      string
	TrialURL string
	// Binary and Data are the build outputs swapped into the skeleton.
	Binary string
	Data   string
}

func (b *Bundler) image() string { return filepath.Join(b.Dir, "trial.dmg") }

func (b *Bundler) mountPoint() string { return filepath.Join(b.Dir, "mount") }

// App is the path of the assembled bundle.
func (b *Bundler) App() string { return filepath.Join(b.Dir, AppName) }

// Bundle downloads the trial image and assembles App(). Every step is fatal.
func (b *Bundler) Bundle(ctx context.Context) (string, error) {
	log.G(ctx).Warnf("Using the trial image at %s only as bundle scaffolding; its executable and data are replaced by the local build", b.TrialURL)

	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return "", errors.Wrapf(err, "create %s", b.Dir)
	}
	if err := b.Downloader.Download(ctx, b.TrialURL, b.image()); err != nil {
		return "", errors.Wrap(err, "download trial image")
	}
	log.G(ctx).Infof("Downloaded trial image to %s", b.image())

	if err := runner.RunAll(ctx, b.Runner, b.Steps()...); err != nil {
		return "", err
	}
	return b.App(), nil
}

// Steps returns the mount, copy and payload swap steps.
func (b *Bundler) Steps() []runner.Step {
	app := b.App()
	contents := filepath.Join(app, "Contents")
	return []runner.Step{
		{
			Args:    []string{"hdiutil", "attach", "-quiet", "-nobrowse", "-noverify", "-noautoopen", "-mountpoint", b.mountPoint(), b.image()},
			Stdin:   "Y\n",
			Success: "Trial image mounted.",
			Failure: "Failed to mount the trial image.",
		},
		{
			Args:    []string{"cp", "-R", filepath.Join(b.mountPoint(), AppName), b.Dir},
			Success: "Bundle skeleton copied.",
			Failure: "Failed to copy the bundle skeleton.",
		},
		{
			Args:    []string{"hdiutil", "detach", b.mountPoint()},
			Success: "Trial image detached.",
			Failure: "Failed to detach the trial image.",
		},
		{
			Args:    []string{"rm", "-rf", filepath.Join(contents, "MacOS", "aseprite")},
			Failure: "Failed to remove the bundled executable.",
		},
		{
			Args:    []string{"rm", "-rf", filepath.Join(contents, "Resources", "data")},
			Failure: "Failed to remove the bundled data.",
		},
		{
			Args:    []string{"cp", b.Binary, filepath.Join(contents, "MacOS", "aseprite")},
			Success: "Built executable copied into the bundle.",
			Failure: "Failed to copy the built executable.",
		},
		{
			Args:    []string{"cp", "-R", b.Data, filepath.Join(contents, "Resources", "data")},
			Success: "Built data copied into the bundle.",
			Failure: "Failed to copy the built data.",
		},
	}
}
