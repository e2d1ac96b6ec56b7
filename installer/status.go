package installer

import (
	"context"

	"github.com/aseprite-builder/aseprite-builder/models"
)

// Status compares the recorded install with the latest release.
func (i *Installer) Status(ctx context.Context) (*models.Installation, error) {
	m, err := i.ReadManifest()
	if err != nil {
		return nil, err
	}
	rel, err := i.Fetcher.LatestRelease(ctx, i.Config.AppRepo)
	if err != nil {
		return nil, err
	}

	s := &models.Installation{
		Repo:    i.Config.AppRepo.String(),
		Version: rel.Version(),
	}
	if m != nil {
		s.CurrentVersion = (&models.Release{TagName: m.Tag}).Version()
		s.Target = m.Target
		s.InstalledAt = m.InstalledAt
	}
	return s, nil
}
