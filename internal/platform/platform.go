// Package platform decides whether a rule written for one operating system
// applies to the host the rules are being loaded on.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// ErrUnsupportedPlatform is returned when a platform string has no family
// mapping, or a requirement names a family no platform belongs to.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

var knownFamilies = []string{"bsd", "darwin", "freebsd", "linux", "netbsd", "openbsd", "unix", "windows"}

// Current returns the host platform in the naming used by cleaner
// definitions (linux, darwin, win32, freebsd, ...).
func Current() string {
	if runtime.GOOS == "windows" {
		return "win32"
	}
	return runtime.GOOS
}

// Families returns the OS families a platform belongs to, most specific
// first.
func Families(platform string) ([]string, error) {
	switch {
	case platform == "darwin":
		return []string{"darwin", "bsd", "unix"}, nil
	case strings.HasPrefix(platform, "linux"):
		return []string{"linux", "unix"}, nil
	case strings.HasPrefix(platform, "openbsd"):
		return []string{"bsd", "openbsd", "unix"}, nil
	case strings.HasPrefix(platform, "netbsd"):
		return []string{"bsd", "netbsd", "unix"}, nil
	case strings.HasPrefix(platform, "freebsd"):
		return []string{"bsd", "freebsd", "unix"}, nil
	case platform == "win32":
		return []string{"windows"}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
}

// Matches reports whether a rule requiring the OS family required applies to
// platform. An empty requirement applies everywhere.
func Matches(required, platform string) (bool, error) {
	if required == "" {
		return true, nil
	}
	if !slices.Contains(knownFamilies, required) {
		return false, fmt.Errorf("%w: unknown os %q", ErrUnsupportedPlatform, required)
	}
	families, err := Families(platform)
	if err != nil {
		return false, err
	}
	return slices.Contains(families, required), nil
}

// Matcher carries the platform of one load pass. When Extraction is set,
// every requirement matches so that all strings of every definition are
// visited regardless of the host.
type Matcher struct {
	Platform   string
	Extraction bool
}

// Host returns a Matcher for the running platform.
func Host() Matcher {
	return Matcher{Platform: Current()}
}

// Match applies Matches with the matcher's platform.
func (m Matcher) Match(required string) (bool, error) {
	if m.Extraction {
		return true, nil
	}
	return Matches(required, m.Platform)
}

// IsWindows reports whether the matcher's platform is win32. It is always
// true in extraction mode.
func (m Matcher) IsWindows() bool {
	return m.Extraction || m.Platform == "win32"
}

// IsPOSIX reports whether the matcher's platform belongs to the unix family.
// It is always true in extraction mode.
func (m Matcher) IsPOSIX() bool {
	if m.Extraction {
		return true
	}
	ok, err := Matches("unix", m.Platform)
	return err == nil && ok
}
