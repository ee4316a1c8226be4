//go:build !windows

package fileutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// OwnedByCurrentUser reports whether path belongs to the effective user.
func OwnedByCurrentUser(path string) bool {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return false
	}
	return int(st.Uid) == os.Geteuid()
}
