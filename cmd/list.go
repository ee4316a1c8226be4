package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/cleanml/internal/ui"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cleaners and their options",
	Long:  "List every loaded cleaner. Cleaners with nothing to clean are hidden unless --all is given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd.Context())
		if err != nil {
			return err
		}
		hidden := 0
		for _, c := range reg.All() {
			if !listAll && cfg.AutoHide && c.AutoHide() {
				hidden++
				continue
			}
			fmt.Println(ui.TitleStyle().Render(c.Name) + ui.MutedStyle().Render("  "+c.Description))
			for _, o := range c.Options() {
				line := fmt.Sprintf("  %s %-32s %s", ui.IconBullet, c.ID+"."+o.ID, o.Description)
				if _, warn := c.Warning(o.ID); warn {
					line += " " + ui.WarningStyle().Render(ui.IconWarning)
				}
				fmt.Println(line)
			}
		}
		if hidden > 0 {
			fmt.Println(ui.MutedStyle().Render(fmt.Sprintf("%d cleaners with nothing to clean hidden; use --all to show them", hidden)))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "Show cleaners with nothing to clean")
}

var runningCmd = &cobra.Command{
	Use:   "running",
	Short: "List cleaners whose application is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range reg.All() {
			if len(c.Running()) == 0 {
				continue
			}
			running, err := c.IsRunning()
			if err != nil {
				stderr("%s %s: %v\n", ui.IconError, c.ID, err)
				continue
			}
			if running {
				fmt.Printf("%s %s\n", c.ID, ui.MutedStyle().Render(c.Name))
			}
		}
		return nil
	},
}
