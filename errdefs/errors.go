// Package errdefs defines the failure kinds that stop an install, uninstall
// or update run. Callers wrap them with github.com/pkg/errors and test with
// the Is helpers.
package errdefs

import "github.com/pkg/errors"

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrPrivilege           = errors.New("privilege violation")
	ErrAssetNotFound       = errors.New("release asset not found")
	ErrNetworkTimeout      = errors.New("network timeout")
	ErrCommandFailed       = errors.New("external command failed")
)

func IsUnsupportedPlatform(err error) bool { return errors.Is(err, ErrUnsupportedPlatform) }

func IsPrivilege(err error) bool { return errors.Is(err, ErrPrivilege) }

func IsAssetNotFound(err error) bool { return errors.Is(err, ErrAssetNotFound) }

func IsNetworkTimeout(err error) bool { return errors.Is(err, ErrNetworkTimeout) }

func IsCommandFailed(err error) bool { return errors.Is(err, ErrCommandFailed) }
