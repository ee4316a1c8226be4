//go:build windows

package core

// PlatformString describes the host, e.g. "Windows 11 (Build 22621)".
func PlatformString() string {
	return WindowsVersionString()
}
