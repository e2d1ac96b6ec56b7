// Package installer orchestrates the install, uninstall, update and status
// workflows. Each workflow is a fixed sequence; the first failing step ends
// it and the error is returned to the caller unchanged in kind.
package installer

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/config"
	"github.com/aseprite-builder/aseprite-builder/errdefs"
	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/models"
	"github.com/aseprite-builder/aseprite-builder/platform"
	"github.com/aseprite-builder/aseprite-builder/recipe"
	"github.com/aseprite-builder/aseprite-builder/release"
	"github.com/aseprite-builder/aseprite-builder/runner"
)

// Fetcher is the part of release.Fetcher the workflows use.
type Fetcher interface {
	LatestRelease(ctx context.Context, repo models.Repo) (*models.Release, error)
	Fetch(ctx context.Context, req release.Request) (*models.Release, error)
	Download(ctx context.Context, url, path string) error
}

type Installer struct {
	Config   *config.Config
	Recipe   *recipe.Recipe
	Platform platform.Info
	Runner   runner.Runner
	Fetcher  Fetcher
	// IsRoot is the privilege level of the current process.
	IsRoot bool
	Now    func() time.Time
}

func New(cfg *config.Config, rec *recipe.Recipe, info platform.Info, r runner.Runner, f Fetcher) *Installer {
	return &Installer{
		Config:   cfg,
		Recipe:   rec,
		Platform: info,
		Runner:   r,
		Fetcher:  f,
		IsRoot:   platform.IsRoot(),
		Now:      time.Now,
	}
}

func (i *Installer) withPlatform(ctx context.Context) context.Context {
	return log.WithLogger(ctx, log.G(ctx).WithField("platform", i.Platform.OS+"/"+i.Platform.Arch))
}

func (i *Installer) unsupported() error {
	return errors.Wrapf(errdefs.ErrUnsupportedPlatform, "%s/%s", i.Platform.OS, i.Platform.Arch)
}

// ensureDirs creates missing directories owned by the invoking user.
func (i *Installer) ensureDirs(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		if exists(dir) {
			log.G(ctx).Debugf("Directory %s already exists.", dir)
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
		log.G(ctx).Infof("Directory %s created.", dir)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
