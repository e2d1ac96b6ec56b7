// Package config holds every path and remote the installer touches. A
// Config is built once at startup and passed to the routines that need it.
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/go-yaml/yaml"
	"github.com/gobuffalo/envy"
	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/models"
)

const (
	// EnvConfig names an alternative config file.
	EnvConfig = "ASEPRITE_BUILDER_CONFIG"
	// EnvToken is an optional GitHub token used for the release API.
	EnvToken = "GITHUB_TOKEN"

	DefaultTrialURL = "https://www.aseprite.org/downloads/trial/Aseprite-v1.3.6-trial-macOS.dmg"
)

type Paths struct {
	// Home is the home directory of the invoking user.
	Home string `yaml:"home"`
	// DepsDir receives the prebuilt Skia release.
	DepsDir string `yaml:"deps_dir"`
	// SourceDir receives the application source and its build tree.
	SourceDir string `yaml:"source_dir"`
	// BundleDir is the macOS bundle staging area.
	BundleDir string `yaml:"bundle_dir"`
	// InstallDir is the Linux install target.
	InstallDir string `yaml:"install_dir"`
	// AppBundle is the macOS install target.
	AppBundle string `yaml:"app_bundle"`
	// DesktopFile is the Linux launcher entry.
	DesktopFile string `yaml:"desktop_file"`
	// StagingDesktopFile is written first and then moved to DesktopFile.
	StagingDesktopFile string `yaml:"staging_desktop_file"`
	// Manifest records the installed release.
	Manifest string `yaml:"manifest"`
}

// BuildDir is where cmake writes the build tree.
func (p Paths) BuildDir() string {
	return filepath.Join(p.SourceDir, "build")
}

// BuiltBinary is the executable produced by the build.
func (p Paths) BuiltBinary() string {
	return filepath.Join(p.BuildDir(), "bin", "aseprite")
}

// BuiltData is the data tree produced by the build.
func (p Paths) BuiltData() string {
	return filepath.Join(p.BuildDir(), "bin", "data")
}

type Config struct {
	Paths Paths `yaml:"paths"`

	SkiaRepo     models.Repo `yaml:"skia_repo"`
	AppRepo      models.Repo `yaml:"app_repo"`
	SourceSuffix string      `yaml:"source_suffix"`
	TrialURL     string      `yaml:"trial_url"`
	// Recipe is an optional Lua build table replacing the embedded one.
	Recipe string `yaml:"recipe"`

	GithubToken string `yaml:"-"`
}

// Default returns the stock configuration rooted at home.
func Default(home string) *Config {
	return &Config{
		Paths: Paths{
			Home:               home,
			DepsDir:            filepath.Join(home, "deps", "skia"),
			SourceDir:          "/tmp/aseprite",
			BundleDir:          "/tmp/bundle",
			InstallDir:         "/opt/aseprite",
			AppBundle:          "/Applications/Aseprite.app",
			DesktopFile:        filepath.Join(home, ".local", "share", "applications", "aseprite.desktop"),
			StagingDesktopFile: "/tmp/aseprite.desktop",
			Manifest:           filepath.Join(home, ".local", "share", "aseprite-builder", "installed.yaml"),
		},
		SkiaRepo:     models.Repo{Owner: "aseprite", Name: "skia"},
		AppRepo:      models.Repo{Owner: "aseprite", Name: "aseprite"},
		SourceSuffix: ".zip",
		TrialURL:     DefaultTrialURL,
	}
}

// Load builds the default configuration for home and overlays the YAML file
// at path. An empty path falls back to $ASEPRITE_BUILDER_CONFIG; a missing
// file is not an error.
func Load(path, home string) (*Config, error) {
	c := Default(home)

	if path == "" {
		path = envy.Get(EnvConfig, "")
	}
	if path != "" {
		data, err := ioutil.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrapf(err, "read config %s", path)
		default:
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	c.GithubToken = envy.Get(EnvToken, "")
	return c, nil
}
