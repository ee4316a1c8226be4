//go:build windows

package winreg

import (
	"errors"

	"golang.org/x/sys/windows/registry"
)

func (k Key) root() registry.Key {
	switch k.Hive {
	case ClassesRoot:
		return registry.CLASSES_ROOT
	case LocalMachine:
		return registry.LOCAL_MACHINE
	case Users:
		return registry.USERS
	case CurrentConfig:
		return registry.CURRENT_CONFIG
	default:
		return registry.CURRENT_USER
	}
}

// Exists reports whether the key, or the named value inside it when
// hasValue is set, exists.
func Exists(full, value string, hasValue bool) bool {
	k, err := ParseKey(full)
	if err != nil {
		return false
	}
	key, err := registry.OpenKey(k.root(), k.Path, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer key.Close()
	if !hasValue {
		return true
	}
	_, _, err = key.GetValue(value, nil)
	return err == nil || errors.Is(err, registry.ErrShortBuffer)
}

// Delete removes the named value, or the whole key with its subkeys when
// hasValue is false.
func Delete(full, value string, hasValue bool) error {
	k, err := ParseKey(full)
	if err != nil {
		return err
	}
	if hasValue {
		key, err := registry.OpenKey(k.root(), k.Path, registry.SET_VALUE)
		if err != nil {
			return err
		}
		defer key.Close()
		return key.DeleteValue(value)
	}
	return deleteTree(k.root(), k.Path)
}

// deleteTree removes path and everything below it; DeleteKey refuses keys
// that still have subkeys.
func deleteTree(root registry.Key, path string) error {
	key, err := registry.OpenKey(root, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return err
	}
	subkeys, err := key.ReadSubKeyNames(-1)
	key.Close()
	if err != nil {
		return err
	}
	for _, name := range subkeys {
		if err := deleteTree(root, path+`\`+name); err != nil {
			return err
		}
	}
	return registry.DeleteKey(root, path)
}
