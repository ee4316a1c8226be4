//go:build !windows

package deepscan

// os.ReadDir reports symlinked directories as symlinks, so nothing to skip.
func isReparsePoint(string) bool { return false }

func longPath(path string) string { return path }
