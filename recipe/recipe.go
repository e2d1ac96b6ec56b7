// Package recipe loads the build table that maps an os/arch pair to the
// Skia asset, toolchain and cmake definitions used to build it. The table is
// a Lua script defining a global "recipe" table.
package recipe

import (
	_ "embed"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/aseprite-builder/aseprite-builder/errdefs"
)

//go:embed default.lua
var defaultRecipe string

type Platform struct {
	OS        string            `gluamapper:"os"`
	Arch      string            `gluamapper:"arch"`
	SkiaAsset string            `gluamapper:"skia_asset"`
	SkiaOut   string            `gluamapper:"skia_out"`
	CC        string            `gluamapper:"cc"`
	CXX       string            `gluamapper:"cxx"`
	Packages  []string          `gluamapper:"packages"`
	Defines   map[string]string `gluamapper:"defines"`
}

type Recipe struct {
	Name      string     `gluamapper:"name"`
	Target    string     `gluamapper:"target"`
	BuildType string     `gluamapper:"build_type"`
	Generator string     `gluamapper:"generator"`
	Platforms []Platform `gluamapper:"platforms"`
}

// keep Lua keys as written so cmake variable names survive decoding
var mapper = gluamapper.NewMapper(gluamapper.Option{
	NameFunc: func(s string) string { return s },
	TagName:  "gluamapper",
})

// Default returns the embedded recipe.
func Default() (*Recipe, error) {
	return Parse(defaultRecipe)
}

// Load reads the recipe at path, or the embedded one when path is empty.
func Load(path string) (*Recipe, error) {
	if path == "" {
		return Default()
	}
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read recipe %s", path)
	}
	r, err := Parse(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "recipe %s", path)
	}
	return r, nil
}

// Parse runs content and decodes its global "recipe" table.
func Parse(content string) (*Recipe, error) {
	l := lua.NewState()
	defer l.Close()
	if err := l.DoString(content); err != nil {
		return nil, errors.Wrap(err, "run recipe")
	}

	tbl, ok := l.GetGlobal("recipe").(*lua.LTable)
	if !ok {
		return nil, errors.New("recipe table is not defined")
	}
	var r Recipe
	if err := mapper.Map(tbl, &r); err != nil {
		return nil, errors.Wrap(err, "decode recipe")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks that each row is complete and unique.
func (r *Recipe) Validate() error {
	if r.Target == "" {
		return errors.New("recipe: target is required")
	}
	if len(r.Platforms) == 0 {
		return errors.New("recipe: no platforms")
	}
	seen := map[string]bool{}
	for i, p := range r.Platforms {
		if p.OS == "" || p.Arch == "" {
			return errors.Errorf("recipe: platform %d: os and arch are required", i)
		}
		if p.SkiaAsset == "" || p.SkiaOut == "" {
			return errors.Errorf("recipe: %s/%s: skia_asset and skia_out are required", p.OS, p.Arch)
		}
		key := p.OS + "/" + p.Arch
		if seen[key] {
			return errors.Errorf("recipe: %s listed twice", key)
		}
		seen[key] = true
	}
	return nil
}

// Lookup returns the row for os/arch.
func (r *Recipe) Lookup(goos, goarch string) (*Platform, error) {
	for i := range r.Platforms {
		if r.Platforms[i].OS == goos && r.Platforms[i].Arch == goarch {
			return &r.Platforms[i], nil
		}
	}
	return nil, errors.Wrapf(errdefs.ErrUnsupportedPlatform, "no build recipe for %s/%s", goos, goarch)
}
