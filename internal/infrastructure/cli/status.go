package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statusJSON    bool
	statusHistory bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show progress through the stored plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		view, err := services.Plan.View(ctx)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if statusJSON && !statusHistory {
			return writeJSON(w, view)
		}

		if statusHistory {
			events, err := services.Plan.History(ctx)
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(w, map[string]any{"status": view, "history": events})
			}
			renderView(w, view)
			fmt.Fprintln(w)
			fmt.Fprintln(w, sectionStyle.Render("History"))
			for _, e := range events {
				line := fmt.Sprintf("  %s %s", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action)
				if e.StepID != "" {
					line += " " + e.StepID
				}
				if e.Minutes > 0 {
					line += fmt.Sprintf(" (%d min)", e.Minutes)
				}
				if e.Forced {
					line += " " + warnStyle.Render("forced")
				}
				fmt.Fprintln(w, line)
			}
			return nil
		}

		renderView(w, view)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	statusCmd.Flags().BoolVar(&statusHistory, "history", false, "Include the progress history")
	RootCmd.AddCommand(statusCmd)
}
