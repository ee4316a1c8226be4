package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/cleanerml"
	"github.com/lakshaymaurya-felt/cleanml/internal/config"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
	"github.com/lakshaymaurya-felt/cleanml/internal/platform"
	"github.com/lakshaymaurya-felt/cleanml/internal/registry"
)

var (
	// Global flags
	debug      bool
	configPath string

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "cleanml",
	Short: "Free disk space and guard your privacy",
	Long: `cleanml - Free disk space and guard your privacy.

Cleaners are described in CleanerML files and grouped into options.
Preview what an option would remove, then clean it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity := 0
		if debug {
			verbosity = 2
		}
		logging.Setup(verbosity, logging.DefaultLogFile())

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Show detailed operation logs")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultPath()+")")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(shredCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(runningCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

// newRegistry wires the built-in cleaners and the CleanerML directories.
func newRegistry(c *config.Config) *registry.Registry {
	system := c.System()
	loader := cleanerml.NewLoader()
	return registry.New(
		registry.Static("builtin",
			func() *cleaner.Cleaner { return cleaner.System(system) },
			func() *cleaner.Cleaner { return cleaner.OpenOfficeOrg(platform.Host()) },
		),
		&cleanerml.Source{Loader: loader, Dirs: c.SearchDirs(config.ExecutableDir())},
	)
}

func loadRegistry(ctx context.Context) (*registry.Registry, error) {
	reg := newRegistry(cfg)
	if err := reg.Reload(ctx); err != nil {
		return nil, fmt.Errorf("loading cleaners: %w", err)
	}
	return reg, nil
}

func stderr(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
}
