package installer

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/models"
)

func (i *Installer) writeManifest(rel *models.Release, target string) error {
	m := models.Manifest{
		Repo:        i.Config.AppRepo.String(),
		Tag:         rel.TagName,
		OS:          i.Platform.OS,
		Arch:        i.Platform.Arch,
		Target:      target,
		InstalledAt: i.Now().UTC(),
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	path := i.Config.Paths.Manifest
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	return errors.Wrap(ioutil.WriteFile(path, data, 0644), "write manifest")
}

// ReadManifest returns the recorded install, or nil when there is none.
func (i *Installer) ReadManifest() (*models.Manifest, error) {
	data, err := ioutil.ReadFile(i.Config.Paths.Manifest)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m models.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parse %s", i.Config.Paths.Manifest)
	}
	return &m, nil
}

func (i *Installer) removeManifest() error {
	err := os.Remove(i.Config.Paths.Manifest)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "remove manifest")
}
