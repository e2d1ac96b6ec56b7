package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Repo identifies a GitHub repository as owner/name.
type Repo struct {
	Owner string `yaml:"owner"`
	Name  string `yaml:"name"`
}

// ParseRepo accepts "owner/name" or a github.com URL.
func ParseRepo(s string) (Repo, error) {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "github.com/")
	s = strings.Trim(s, "/")

	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, errors.Errorf("invalid repository %q, want owner/name", s)
	}
	return Repo{Owner: parts[0], Name: strings.TrimSuffix(parts[1], ".git")}, nil
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

type Asset struct {
	Name        string
	DownloadURL string
}

type Release struct {
	TagName string
	Name    string
	HTMLURL string
	Assets  []Asset
}

// Version returns the tag without a leading "v".
func (r *Release) Version() string {
	return strings.Replace(r.TagName, "v", "", 1)
}

// Manifest records what the last successful install put on disk.
type Manifest struct {
	Repo        string    `yaml:"repo"`
	Tag         string    `yaml:"tag"`
	OS          string    `yaml:"os"`
	Arch        string    `yaml:"arch"`
	Target      string    `yaml:"target"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// Installation pairs the installed version with the latest release.
type Installation struct {
	Repo           string
	Target         string
	CurrentVersion string
	Version        string
	InstalledAt    time.Time
}
