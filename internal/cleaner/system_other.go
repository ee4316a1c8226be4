//go:build !windows

package cleaner

import "github.com/lakshaymaurya-felt/cleanml/internal/command"

// recycleBin has nothing to offer without the Windows shell.
func recycleBin(func(command.Command, error) bool) {}

func windowsTempDirs() []string { return nil }
