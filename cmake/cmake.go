// Package cmake turns a cmake configure/build into runner steps.
package cmake

import (
	"path/filepath"
	"sort"

	"github.com/aseprite-builder/aseprite-builder/recipe"
	"github.com/aseprite-builder/aseprite-builder/runner"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake drives CMake-based builds.
type CMake struct {
	sourceDir string
	buildDir  string
	generator string
	defines   map[string]defineValue
	env       map[string]string
}

func New(sourceDir, buildDir string) *CMake {
	return &CMake{
		sourceDir: sourceDir,
		buildDir:  buildDir,
		defines:   make(map[string]defineValue),
		env:       make(map[string]string),
	}
}

// Generator sets the CMake generator (e.g. "Ninja", "Unix Makefiles").
func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

// BuildType sets CMAKE_BUILD_TYPE (e.g. "Release", "RelWithDebInfo").
func (c *CMake) BuildType(name string) *CMake {
	if name != "" {
		c.Define("CMAKE_BUILD_TYPE", name)
	}
	return c
}

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

// Env sets an environment variable for every step.
func (c *CMake) Env(key, value string) *CMake {
	if value != "" {
		c.env[key] = value
	}
	return c
}

func (c *CMake) BuildDir() string { return c.buildDir }

// Args returns the configure command line.
func (c *CMake) Args() []string {
	args := []string{"cmake", "-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	return append(args, c.definesArgs()...)
}

func (c *CMake) ConfigureStep() runner.Step {
	return runner.Step{
		Args:    c.Args(),
		Dir:     c.buildDir,
		Env:     c.env,
		Success: "Build configured.",
		Failure: "Failed to configure the build.",
	}
}

// BuildStep builds target with the generator's tool.
func (c *CMake) BuildStep(target string) runner.Step {
	args := []string{"cmake", "--build", c.buildDir, "--target", target}
	if c.generator == "Ninja" {
		args = []string{"ninja", target}
	}
	return runner.Step{
		Args:    args,
		Dir:     c.buildDir,
		Env:     c.env,
		Success: target + " built.",
		Failure: "Failed to build " + target + ".",
	}
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

// ForPlatform configures a build of sourceDir against the Skia release
// extracted in skiaDir, following the recipe row p.
func ForPlatform(r *recipe.Recipe, p *recipe.Platform, sourceDir, buildDir, skiaDir string) *CMake {
	libDir := filepath.Join(skiaDir, filepath.FromSlash(p.SkiaOut))

	c := New(sourceDir, buildDir).
		Generator(r.Generator).
		BuildType(r.BuildType).
		Env("CC", p.CC).
		Env("CXX", p.CXX).
		Define("LAF_BACKEND", "skia").
		Define("SKIA_DIR", skiaDir).
		Define("SKIA_LIBRARY_DIR", libDir).
		Define("SKIA_LIBRARY", filepath.Join(libDir, "libskia.a"))
	for k, v := range p.Defines {
		c.Define(k, v)
	}
	return c
}
