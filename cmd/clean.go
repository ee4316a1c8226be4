package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/cleanml/internal/ui"
	"github.com/lakshaymaurya-felt/cleanml/internal/worker"
)

var forceClean bool

var previewCmd = &cobra.Command{
	Use:   "preview cleaner.option...",
	Short: "Show what cleaning would remove",
	Long:  "Preview the selected options without deleting anything. Use cleaner.* to select every option of a cleaner.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd.Context())
		if err != nil {
			return err
		}
		ops, err := parseSelection(reg, args)
		if err != nil {
			return err
		}
		return runPass(cmd.Context(), false, ops)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean cleaner.option...",
	Short: "Delete what the selected options find",
	Long: `Clean the selected options. Cleaning is refused while the owning
application is running unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd.Context())
		if err != nil {
			return err
		}
		ops, err := parseSelection(reg, args)
		if err != nil {
			return err
		}
		if err := checkRunning(ops); err != nil {
			return err
		}
		printWarnings(ops)
		return runPass(cmd.Context(), true, ops)
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&forceClean, "force", false, "Clean even if the application is running")
}

func checkRunning(ops []worker.Operation) error {
	for _, op := range ops {
		running, err := op.Cleaner.IsRunning()
		if err != nil {
			return fmt.Errorf("checking whether %s is running: %w", op.Cleaner.Name, err)
		}
		if !running {
			continue
		}
		if !forceClean {
			return fmt.Errorf("%s is running; close it first or pass --force", op.Cleaner.Name)
		}
		stderr("%s\n", ui.WarningStyle().Render(ui.IconWarning+" "+op.Cleaner.Name+" is running"))
	}
	return nil
}

func printWarnings(ops []worker.Operation) {
	for _, op := range ops {
		for _, opt := range op.Options {
			if text, ok := op.Cleaner.Warning(opt); ok {
				stderr("%s\n", ui.WarningStyle().Render(ui.IconWarning+" "+op.Cleaner.ID+"."+opt+": "+text))
			}
		}
	}
}
