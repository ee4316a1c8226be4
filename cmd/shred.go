package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/config"
	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/worker"
)

var shredCmd = &cobra.Command{
	Use:   "shred PATH...",
	Short: "Overwrite and delete files or directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := make([]string, 0, len(args))
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			if config.IsProtected(abs) {
				return fmt.Errorf("refusing to shred protected path %s", abs)
			}
			paths = append(paths, abs)
		}
		c := cleaner.NewShredCleaner(paths)
		return runPass(cmd.Context(), true, []worker.Operation{{Cleaner: c, Options: []string{"files"}}})
	},
}

var wipeCmd = &cobra.Command{
	Use:   "wipe DIR",
	Short: "Overwrite free disk space on the volume holding DIR",
	Long:  "Fill the free space of DIR's volume with a temporary file, then delete it. This is very slow.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if !fileutil.IsDir(dir) {
			return fmt.Errorf("%s is not a directory", dir)
		}
		c := cleaner.NewWipeCleaner(dir)
		return runPass(cmd.Context(), true, []worker.Operation{{Cleaner: c, Options: []string{"free_disk_space"}}})
	},
}
