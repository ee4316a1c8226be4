//go:build windows

package process

import (
	"github.com/yusufpapurcu/wmi"
)

const caseInsensitive = true

// win32Process holds the Win32_Process columns we query.
type win32Process struct {
	Name string
}

// hostProcessNames queries WMI, falling back to a toolhelp snapshot through
// gopsutil when WMI is unavailable.
func hostProcessNames() ([]string, error) {
	var procs []win32Process
	if err := wmi.Query("SELECT Name FROM Win32_Process", &procs); err != nil {
		return gopsutilNames()
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		names = append(names, p.Name)
	}
	return names, nil
}
