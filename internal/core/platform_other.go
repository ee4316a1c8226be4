//go:build !windows

package core

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// PlatformString describes the host, e.g. "ubuntu 24.04 (linux/amd64)".
func PlatformString() string {
	platform, _, version, err := host.PlatformInformation()
	if err != nil || platform == "" {
		return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	}
	return fmt.Sprintf("%s %s (%s/%s)", platform, version, runtime.GOOS, runtime.GOARCH)
}
