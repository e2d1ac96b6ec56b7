package platform

import (
	"context"
	"runtime"
	"testing"

	"github.com/aseprite-builder/aseprite-builder/errdefs"
)

func TestDetect(t *testing.T) {
	info, err := Detect(context.Background())
	switch runtime.GOOS {
	case Linux, Darwin:
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
	default:
		if !errdefs.IsUnsupportedPlatform(err) {
			t.Fatalf("Detect() error = %v, want ErrUnsupportedPlatform", err)
		}
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("Detect() = %v", info)
	}
}

func TestNormalizeFamily(t *testing.T) {
	tests := []struct {
		family   string
		platform string
		want     string
	}{
		{family: "debian", platform: "ubuntu", want: FamilyDebian},
		{family: "Ubuntu ", platform: "ubuntu", want: FamilyDebian},
		{family: "", platform: "raspbian", want: FamilyDebian},
		{family: "rhel", platform: "fedora", want: "rhel"},
		{family: "", platform: "gentoo", want: ""},
	}
	for _, tt := range tests {
		if got := normalizeFamily(tt.family, tt.platform); got != tt.want {
			t.Errorf("normalizeFamily(%q, %q) = %q, want %q", tt.family, tt.platform, got, tt.want)
		}
	}
}

func TestRequireAPT(t *testing.T) {
	tests := []struct {
		name    string
		info    Info
		wantErr bool
	}{
		{name: "ubuntu", info: Info{Platform: "ubuntu", Family: FamilyDebian}},
		{name: "unknown", info: Info{}},
		{name: "fedora", info: Info{Platform: "fedora", Family: "fedora"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireAPT(tt.info)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RequireAPT() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errdefs.IsUnsupportedPlatform(err) {
				t.Errorf("RequireAPT() error = %v, want ErrUnsupportedPlatform", err)
			}
		})
	}
}

func TestPrivilegeChecks(t *testing.T) {
	tests := []struct {
		name    string
		check   func(bool, string) error
		isRoot  bool
		wantErr bool
	}{
		{name: "install as user", check: RequireNotRoot, isRoot: false},
		{name: "install as root", check: RequireNotRoot, isRoot: true, wantErr: true},
		{name: "uninstall as root", check: RequireRoot, isRoot: true},
		{name: "uninstall as user", check: RequireRoot, isRoot: false, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.isRoot, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errdefs.IsPrivilege(err) {
				t.Errorf("error = %v, want ErrPrivilege", err)
			}
		})
	}
}

func TestHomeDir(t *testing.T) {
	if IsRoot() {
		t.Skip("SUDO_USER resolution depends on local accounts")
	}
	t.Setenv("HOME", "/home/ana")
	t.Setenv("SUDO_USER", "somebody")
	got, err := HomeDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/ana" {
		t.Errorf("HomeDir() = %q, want /home/ana", got)
	}
}
