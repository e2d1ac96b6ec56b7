package installer

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/config"
	"github.com/aseprite-builder/aseprite-builder/errdefs"
	"github.com/aseprite-builder/aseprite-builder/models"
	"github.com/aseprite-builder/aseprite-builder/platform"
	"github.com/aseprite-builder/aseprite-builder/recipe"
	"github.com/aseprite-builder/aseprite-builder/release"
	"github.com/aseprite-builder/aseprite-builder/runner"
)

type fakeFetcher struct {
	requests  []release.Request
	downloads []string
	failOn    string
	tag       string
}

func (f *fakeFetcher) LatestRelease(_ context.Context, repo models.Repo) (*models.Release, error) {
	return &models.Release{TagName: f.tag}, nil
}

// Fetch pretends to extract an archive into req.Dir.
func (f *fakeFetcher) Fetch(_ context.Context, req release.Request) (*models.Release, error) {
	f.requests = append(f.requests, req)
	if req.Repo.Name == f.failOn {
		return nil, errors.Wrapf(errdefs.ErrAssetNotFound, "%s", req.Repo)
	}
	if err := os.MkdirAll(req.Dir, 0755); err != nil {
		return nil, err
	}
	if err := ioutil.WriteFile(filepath.Join(req.Dir, "README.md"), []byte(req.Repo.Name), 0644); err != nil {
		return nil, err
	}
	return &models.Release{TagName: f.tag}, nil
}

func (f *fakeFetcher) Download(_ context.Context, url, path string) error {
	f.downloads = append(f.downloads, url)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	home := filepath.Join(root, "home")
	c := config.Default(home)
	c.Paths.SourceDir = filepath.Join(root, "tmp", "aseprite")
	c.Paths.BundleDir = filepath.Join(root, "tmp", "bundle")
	c.Paths.InstallDir = filepath.Join(root, "opt", "aseprite")
	c.Paths.AppBundle = filepath.Join(root, "Applications", "Aseprite.app")
	c.Paths.StagingDesktopFile = filepath.Join(root, "tmp", "aseprite.desktop")
	c.TrialURL = "https://example.invalid/trial.dmg"
	return c
}

func newTestInstaller(t *testing.T, info platform.Info) (*Installer, *runner.Recorder, *fakeFetcher) {
	t.Helper()
	rec, err := recipe.Default()
	if err != nil {
		t.Fatal(err)
	}
	r := &runner.Recorder{}
	f := &fakeFetcher{tag: "v1.3.6"}
	i := &Installer{
		Config:   testConfig(t),
		Recipe:   rec,
		Platform: info,
		Runner:   r,
		Fetcher:  f,
		Now:      func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	return i, r, f
}

var (
	ubuntu   = platform.Info{OS: platform.Linux, Arch: "amd64", Platform: "ubuntu", Family: platform.FamilyDebian}
	macARM   = platform.Info{OS: platform.Darwin, Arch: "arm64"}
	macIntel = platform.Info{OS: platform.Darwin, Arch: "amd64"}
)

func linuxCommands(p config.Paths) []string {
	skia := p.DepsDir
	return []string{
		"sudo apt-get update",
		"sudo apt-get upgrade -y",
		"sudo apt-get install -y g++ clang libc++-dev libc++abi-dev cmake ninja-build libx11-dev libxcursor-dev libxi-dev libgl1-mesa-dev libfontconfig1-dev",
		"cmake -S " + p.SourceDir + " -B " + p.BuildDir() + " -G Ninja" +
			" -DCMAKE_BUILD_TYPE:STRING=RelWithDebInfo" +
			" -DCMAKE_CXX_FLAGS:STRING=-stdlib=libc++" +
			" -DCMAKE_EXE_LINKER_FLAGS:STRING=-stdlib=libc++" +
			" -DLAF_BACKEND:STRING=skia" +
			" -DSKIA_DIR:STRING=" + skia +
			" -DSKIA_LIBRARY:STRING=" + skia + "/out/Release-x64/libskia.a" +
			" -DSKIA_LIBRARY_DIR:STRING=" + skia + "/out/Release-x64",
		"ninja aseprite",
		"sudo mkdir -p " + p.InstallDir,
		"sudo mv " + filepath.Join(p.SourceDir, "README.md") + " " + filepath.Join(p.InstallDir, "README.md"),
		"sudo mv " + filepath.Join(p.SourceDir, "build") + " " + filepath.Join(p.InstallDir, "build"),
		"sudo mv " + p.StagingDesktopFile + " " + p.DesktopFile,
		"sudo chmod +x " + p.DesktopFile,
	}
}

func TestInstallLinux(t *testing.T) {
	i, r, f := newTestInstaller(t, ubuntu)
	p := i.Config.Paths

	if err := i.Install(context.Background()); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if diff := cmp.Diff(linuxCommands(p), r.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}

	wantRequests := []release.Request{
		{Repo: models.Repo{Owner: "aseprite", Name: "skia"}, AssetName: "Skia-Linux-Release-x64-libc++.zip", Dir: p.DepsDir},
		{Repo: models.Repo{Owner: "aseprite", Name: "aseprite"}, Suffix: ".zip", Dir: p.SourceDir},
	}
	if diff := cmp.Diff(wantRequests, f.requests); diff != "" {
		t.Errorf("fetch requests mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(filepath.Dir(p.DesktopFile)); err != nil {
		t.Errorf("applications dir not created: %v", err)
	}
	staged, err := ioutil.ReadFile(p.StagingDesktopFile)
	if err != nil {
		t.Fatal(err)
	}
	if want := "Exec=" + p.InstallDir + "/build/bin/aseprite"; !strings.Contains(string(staged), want) {
		t.Errorf("staged desktop file missing %q:\n%s", want, staged)
	}

	m, err := i.ReadManifest()
	if err != nil {
		t.Fatal(err)
	}
	want := &models.Manifest{
		Repo:        "aseprite/aseprite",
		Tag:         "v1.3.6",
		OS:          "linux",
		Arch:        "amd64",
		Target:      p.InstallDir,
		InstalledAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestReinstallReplacesPreviousTree(t *testing.T) {
	t.Run("linux", func(t *testing.T) {
		i, r, _ := newTestInstaller(t, ubuntu)
		p := i.Config.Paths
		if err := os.MkdirAll(filepath.Join(p.InstallDir, "build", "bin"), 0755); err != nil {
			t.Fatal(err)
		}

		if err := i.Install(context.Background()); err != nil {
			t.Fatalf("Install() error = %v", err)
		}
		want := []string{
			"sudo mv " + filepath.Join(p.SourceDir, "README.md") + " " + filepath.Join(p.InstallDir, "README.md"),
			"sudo rm -rf " + filepath.Join(p.InstallDir, "build"),
			"sudo mv " + filepath.Join(p.SourceDir, "build") + " " + filepath.Join(p.InstallDir, "build"),
		}
		cmds := r.Commands()
		if diff := cmp.Diff(want, cmds[5:8]); diff != "" {
			t.Errorf("move steps mismatch (-want +got):\n%s", diff)
		}
		for _, c := range cmds {
			if c == "sudo mkdir -p "+p.InstallDir {
				t.Errorf("existing install dir created again")
			}
		}
	})
	t.Run("darwin", func(t *testing.T) {
		i, r, _ := newTestInstaller(t, macARM)
		p := i.Config.Paths
		if err := os.MkdirAll(p.AppBundle, 0755); err != nil {
			t.Fatal(err)
		}

		if err := i.Install(context.Background()); err != nil {
			t.Fatalf("Install() error = %v", err)
		}
		cmds := r.Commands()
		want := []string{
			"sudo rm -rf " + p.AppBundle,
			"sudo cp -R " + filepath.Join(p.BundleDir, "Aseprite.app") + " " + p.AppBundle,
		}
		if diff := cmp.Diff(want, cmds[len(cmds)-2:]); diff != "" {
			t.Errorf("copy steps mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestInstallRejectsRoot(t *testing.T) {
	for _, info := range []platform.Info{ubuntu, macARM} {
		t.Run(info.OS, func(t *testing.T) {
			i, r, f := newTestInstaller(t, info)
			i.IsRoot = true

			if err := i.Install(context.Background()); !errdefs.IsPrivilege(err) {
				t.Fatalf("Install() error = %v, want ErrPrivilege", err)
			}
			if len(r.Steps) != 0 || len(f.requests) != 0 {
				t.Errorf("ran %d steps and %d fetches as root", len(r.Steps), len(f.requests))
			}
		})
	}
}

func TestInstallLinuxStopsWhenSkiaFetchFails(t *testing.T) {
	i, r, f := newTestInstaller(t, ubuntu)
	f.failOn = "skia"

	err := i.Install(context.Background())
	if !errdefs.IsAssetNotFound(err) {
		t.Fatalf("Install() error = %v, want ErrAssetNotFound", err)
	}
	if len(f.requests) != 1 {
		t.Errorf("fetches = %d, want 1", len(f.requests))
	}
	for _, c := range r.Commands() {
		if strings.HasPrefix(c, "cmake ") || strings.HasPrefix(c, "ninja ") || strings.HasPrefix(c, "sudo mv ") {
			t.Errorf("step %q ran after failed fetch", c)
		}
	}
}

func TestInstallLinuxStopsOnCommandFailure(t *testing.T) {
	tests := []struct {
		failOn      string
		wantSteps   int
		wantFetches int
	}{
		{failOn: "apt-get update", wantSteps: 1, wantFetches: 0},
		{failOn: "apt-get install", wantSteps: 3, wantFetches: 0},
		{failOn: "cmake -S", wantSteps: 4, wantFetches: 2},
		{failOn: "ninja aseprite", wantSteps: 5, wantFetches: 2},
		{failOn: "mkdir -p", wantSteps: 6, wantFetches: 2},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			i, r, f := newTestInstaller(t, ubuntu)
			r.FailOn = tt.failOn

			if err := i.Install(context.Background()); !errdefs.IsCommandFailed(err) {
				t.Fatalf("Install() error = %v, want ErrCommandFailed", err)
			}
			if len(r.Steps) != tt.wantSteps {
				t.Errorf("steps = %v, want %d", r.Commands(), tt.wantSteps)
			}
			if len(f.requests) != tt.wantFetches {
				t.Errorf("fetches = %d, want %d", len(f.requests), tt.wantFetches)
			}
			if _, err := os.Stat(i.Config.Paths.Manifest); !os.IsNotExist(err) {
				t.Errorf("manifest written after failure: %v", err)
			}
		})
	}
}

func TestInstallLinuxRejectsOtherDistros(t *testing.T) {
	i, r, _ := newTestInstaller(t, platform.Info{OS: platform.Linux, Arch: "amd64", Platform: "fedora", Family: "fedora"})
	if err := i.Install(context.Background()); !errdefs.IsUnsupportedPlatform(err) {
		t.Fatalf("Install() error = %v, want ErrUnsupportedPlatform", err)
	}
	if len(r.Steps) != 0 {
		t.Errorf("steps = %v", r.Commands())
	}
}

func TestInstallUnsupported(t *testing.T) {
	tests := []platform.Info{
		{OS: "windows", Arch: "amd64"},
		{OS: platform.Linux, Arch: "arm64", Family: platform.FamilyDebian},
		{OS: platform.Darwin, Arch: "386"},
	}
	for _, info := range tests {
		t.Run(info.OS+"/"+info.Arch, func(t *testing.T) {
			i, r, _ := newTestInstaller(t, info)
			if err := i.Install(context.Background()); !errdefs.IsUnsupportedPlatform(err) {
				t.Fatalf("Install() error = %v, want ErrUnsupportedPlatform", err)
			}
			if len(r.Steps) != 0 {
				t.Errorf("steps = %v", r.Commands())
			}
		})
	}
}

func TestInstallMacOS(t *testing.T) {
	tests := []struct {
		name       string
		info       platform.Info
		hasTools   bool
		wantAsset  string
		wantDefine string
	}{
		{name: "arm64 without tools", info: macARM, hasTools: false, wantAsset: "Skia-macOS-Release-arm64.zip", wantDefine: "-DPNG_ARM_NEON:STRING=on"},
		{name: "x86_64 with tools", info: macIntel, hasTools: true, wantAsset: "Skia-macOS-Release-x64.zip", wantDefine: "-DCMAKE_OSX_ARCHITECTURES:STRING=x86_64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, r, f := newTestInstaller(t, tt.info)
			r.Probes = map[string]bool{"xcode-select -p": tt.hasTools}
			p := i.Config.Paths

			if err := i.Install(context.Background()); err != nil {
				t.Fatalf("Install() error = %v", err)
			}

			cmds := r.Commands()
			var want []string
			if !tt.hasTools {
				want = append(want, "xcode-select --install")
			}
			want = append(want, "brew install cmake ninja")
			if diff := cmp.Diff(want, cmds[:len(want)]); diff != "" {
				t.Errorf("setup mismatch (-want +got):\n%s", diff)
			}
			if got := cmds[len(want)]; !strings.Contains(got, tt.wantDefine) {
				t.Errorf("configure step %q missing %q", got, tt.wantDefine)
			}
			if got, want := cmds[len(cmds)-1], "sudo cp -R "+filepath.Join(p.BundleDir, "Aseprite.app")+" "+p.AppBundle; got != want {
				t.Errorf("last step = %q, want %q", got, want)
			}

			if len(f.requests) != 2 {
				t.Fatalf("fetches = %d, want 2", len(f.requests))
			}
			if f.requests[0].Repo.Name != "aseprite" || f.requests[1].AssetName != tt.wantAsset {
				t.Errorf("fetch order = %+v", f.requests)
			}
			if diff := cmp.Diff([]string{"https://example.invalid/trial.dmg"}, f.downloads); diff != "" {
				t.Errorf("downloads mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUninstallRequiresRoot(t *testing.T) {
	i, r, _ := newTestInstaller(t, ubuntu)
	i.IsRoot = false
	if err := i.Uninstall(context.Background()); !errdefs.IsPrivilege(err) {
		t.Fatalf("Uninstall() error = %v, want ErrPrivilege", err)
	}
	if len(r.Steps) != 0 {
		t.Errorf("steps = %v", r.Commands())
	}
}

func TestUninstallLinux(t *testing.T) {
	i, r, _ := newTestInstaller(t, ubuntu)
	i.IsRoot = true
	p := i.Config.Paths

	for _, dir := range []string{p.InstallDir, filepath.Dir(p.DesktopFile), filepath.Dir(p.Manifest)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, file := range []string{p.DesktopFile, p.Manifest} {
		if err := ioutil.WriteFile(file, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := i.Uninstall(context.Background()); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	want := []string{
		"sudo rm -rf " + p.InstallDir,
		"sudo rm " + p.DesktopFile,
	}
	if diff := cmp.Diff(want, r.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(p.Manifest); !os.IsNotExist(err) {
		t.Errorf("manifest not removed: %v", err)
	}
}

func TestUninstallIsIdempotent(t *testing.T) {
	for _, info := range []platform.Info{ubuntu, macARM} {
		t.Run(info.OS, func(t *testing.T) {
			i, r, _ := newTestInstaller(t, info)
			i.IsRoot = true

			for n := 0; n < 2; n++ {
				if err := i.Uninstall(context.Background()); err != nil {
					t.Fatalf("Uninstall() run %d error = %v", n, err)
				}
			}
			if len(r.Steps) != 0 {
				t.Errorf("steps = %v, want none", r.Commands())
			}
		})
	}
}

func TestUninstallMacOS(t *testing.T) {
	i, r, _ := newTestInstaller(t, macARM)
	i.IsRoot = true
	p := i.Config.Paths
	for _, dir := range []string{p.AppBundle, p.BundleDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	if err := i.Uninstall(context.Background()); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	want := []string{
		"sudo rm -rf " + p.AppBundle,
		"rm -rf " + p.BundleDir,
	}
	if diff := cmp.Diff(want, r.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateOnFreshLinuxHost(t *testing.T) {
	i, r, _ := newTestInstaller(t, ubuntu)

	if err := i.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if diff := cmp.Diff(linuxCommands(i.Config.Paths), r.Commands()); diff != "" {
		t.Errorf("update differs from a fresh install (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(i.Config.Paths.Manifest); err != nil {
		t.Errorf("manifest missing after update: %v", err)
	}
}

func TestUpdateRemovesPreviousInstallFirst(t *testing.T) {
	i, r, _ := newTestInstaller(t, ubuntu)
	p := i.Config.Paths
	if err := os.MkdirAll(p.InstallDir, 0755); err != nil {
		t.Fatal(err)
	}
	r.FailOn = "apt-get update"

	if err := i.Update(context.Background()); !errdefs.IsCommandFailed(err) {
		t.Fatalf("Update() error = %v, want ErrCommandFailed", err)
	}
	want := []string{"sudo rm -rf " + p.InstallDir, "sudo apt-get update"}
	if diff := cmp.Diff(want, r.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateRejectsRoot(t *testing.T) {
	i, r, _ := newTestInstaller(t, ubuntu)
	i.IsRoot = true
	if err := i.Update(context.Background()); !errdefs.IsPrivilege(err) {
		t.Fatalf("Update() error = %v, want ErrPrivilege", err)
	}
	if len(r.Steps) != 0 {
		t.Errorf("steps = %v", r.Commands())
	}
}

func TestStatus(t *testing.T) {
	i, _, f := newTestInstaller(t, ubuntu)
	f.tag = "v1.3.7"

	s, err := i.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&models.Installation{Repo: "aseprite/aseprite", Version: "1.3.7"}, s); diff != "" {
		t.Errorf("status before install mismatch (-want +got):\n%s", diff)
	}

	if err := i.writeManifest(&models.Release{TagName: "v1.3.6"}, "/opt/aseprite"); err != nil {
		t.Fatal(err)
	}
	s, err = i.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := &models.Installation{
		Repo:           "aseprite/aseprite",
		Target:         "/opt/aseprite",
		CurrentVersion: "1.3.6",
		Version:        "1.3.7",
		InstalledAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}
