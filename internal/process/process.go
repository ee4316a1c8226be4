// Package process answers whether a named executable is currently running.
package process

import (
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Finder looks up running processes by executable name.
type Finder struct {
	// list enumerates process names; swapped in tests.
	list func() ([]string, error)
}

// New returns a Finder over the host's process table.
func New() *Finder {
	return &Finder{list: hostProcessNames}
}

// IsRunning reports whether a process whose name or executable basename
// equals exe is running. Windows comparisons ignore case.
func (f *Finder) IsRunning(exe string) (bool, error) {
	names, err := f.list()
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if sameExe(name, exe) {
			return true, nil
		}
	}
	return false, nil
}

// Names returns the names of all running processes.
func (f *Finder) Names() ([]string, error) {
	return f.list()
}

// gopsutilNames lists processes portably, preferring the executable path
// over the comm name, which Linux truncates to 15 bytes.
func gopsutilNames() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		if exe, err := p.Exe(); err == nil && exe != "" {
			names = append(names, filepath.Base(exe))
			continue
		}
		if name, err := p.Name(); err == nil && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func sameExe(name, exe string) bool {
	name = filepath.Base(name)
	exe = filepath.Base(exe)
	if caseInsensitive {
		return strings.EqualFold(name, exe)
	}
	return name == exe
}
