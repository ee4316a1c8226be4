// Package fileutil holds the filesystem primitives commands are built on:
// sizing, plain and secure deletion, and race-tolerant directory walks.
package fileutil

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"syscall"
)

// Exists reports whether path exists without following a final symlink.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Size returns the size of path in bytes. Directories and missing paths
// count as zero.
func Size(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// Delete removes one filesystem entry. Directories are removed only when
// empty; a non-empty directory is left in place without error because its
// remaining children belong to another rule.
func Delete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && info.IsDir() && isNotEmpty(err) {
		return nil
	}
	return err
}

func isNotEmpty(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ENOTEMPTY || errno == syscall.EEXIST
	}
	return false
}

// Shred overwrites a regular file with random bytes, truncates it, renames it
// to a random name and removes it. Anything else is deleted plainly.
func Shred(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return Delete(path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(f, rand.Reader, info.Size()); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Hide the original name from the directory entry before unlinking.
	target := path
	if renamed, err := randomSibling(path); err == nil {
		if os.Rename(path, renamed) == nil {
			target = renamed
		}
	}
	return os.Remove(target)
}

func randomSibling(path string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), hex.EncodeToString(buf)), nil
}

// Truncate empties a regular file and returns the number of bytes released.
func Truncate(path string) (int64, error) {
	before := Size(path)
	if err := os.Truncate(path, 0); err != nil {
		return 0, err
	}
	return before, nil
}

// Children yields every entry below dir, deepest first, so a directory is
// always yielded after its contents. Directories are included only when
// withDirs is set. Symlinked directories are yielded but never descended.
// Unreadable directories are skipped silently.
func Children(dir string, withDirs bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		walkPostOrder(dir, withDirs, yield)
	}
}

func walkPostOrder(dir string, withDirs bool, yield func(string) bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}
	for _, e := range entries {
		child := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if !walkPostOrder(child, withDirs, yield) {
				return false
			}
			if withDirs && !yield(child) {
				return false
			}
			continue
		}
		if !yield(child) {
			return false
		}
	}
	return true
}

// TopLevel yields the direct entries of dir.
func TopLevel(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if !yield(filepath.Join(dir, e.Name())) {
				return
			}
		}
	}
}

// IsWorldWritable reports whether any user may write to the file.
func IsWorldWritable(mode fs.FileMode) bool {
	return mode.Perm()&0o002 != 0
}

// IsRegular reports whether path is a regular file, not following symlinks.
func IsRegular(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path is a directory, not following symlinks.
func IsDir(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}
