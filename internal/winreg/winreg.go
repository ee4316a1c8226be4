// Package winreg deletes Windows registry keys and values named by
// "HIVE\path\to\key" strings. On other platforms every key is absent.
package winreg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned by Delete outside Windows.
var ErrUnsupported = errors.New("registry editing is not supported on this platform")

// ErrBadKey is returned for keys without a recognised hive prefix.
var ErrBadKey = errors.New("invalid registry key")

// Hive identifies a registry root.
type Hive int

const (
	ClassesRoot Hive = iota
	CurrentUser
	LocalMachine
	Users
	CurrentConfig
)

var hiveNames = map[string]Hive{
	"HKCR":                ClassesRoot,
	"HKEY_CLASSES_ROOT":   ClassesRoot,
	"HKCU":                CurrentUser,
	"HKEY_CURRENT_USER":   CurrentUser,
	"HKLM":                LocalMachine,
	"HKEY_LOCAL_MACHINE":  LocalMachine,
	"HKU":                 Users,
	"HKEY_USERS":          Users,
	"HKCC":                CurrentConfig,
	"HKEY_CURRENT_CONFIG": CurrentConfig,
}

// Key is a parsed registry location.
type Key struct {
	Hive Hive
	Path string
}

// ParseKey splits a full key such as HKCU\Software\Foo into hive and path.
func ParseKey(full string) (Key, error) {
	full = strings.TrimSpace(strings.ReplaceAll(full, "/", `\`))
	root, path, _ := strings.Cut(full, `\`)
	hive, ok := hiveNames[strings.ToUpper(root)]
	if !ok || path == "" {
		return Key{}, fmt.Errorf("%w: %q", ErrBadKey, full)
	}
	return Key{Hive: hive, Path: strings.Trim(path, `\`)}, nil
}
