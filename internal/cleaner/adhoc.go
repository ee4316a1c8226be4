package cleaner

import (
	"path/filepath"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
)

// NewShredCleaner returns a cleaner whose single option "files" shreds
// paths. Directories are shredded depth-first, the directory last.
func NewShredCleaner(paths []string) *Cleaner {
	c := New("shred", "System", "")
	c.AddOption("files", "Files", "Shred the given files and folders")
	c.AddAction("files", action.Func(func(yield func(command.Command, error) bool) {
		for _, p := range paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if fileutil.IsDir(abs) {
				for child := range fileutil.Children(abs, true) {
					if !yield(command.Shred{Path: child}, nil) {
						return
					}
				}
			}
			if !yield(command.Shred{Path: abs, Explicit: true}, nil) {
				return
			}
		}
	}))
	return c
}

// NewWipeCleaner returns a cleaner whose single option "free_disk_space"
// overwrites the free space of the filesystem holding path.
func NewWipeCleaner(path string) *Cleaner {
	c := New("wipe", "", "")
	c.AddOption("free_disk_space", "Free disk space", "Overwrite free disk space to hide deleted files")
	c.SetWarning("free_disk_space", "This option is very slow.")
	c.AddAction("free_disk_space", action.Static(wipeCommand(path)))
	return c
}
