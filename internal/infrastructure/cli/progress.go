package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

var (
	progressTasks   int
	progressScore   float64
	progressMinutes int
	progressForce   bool
	skipConfirm     bool
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Complete the current step and unlock the next one",
	Long: `Report progress on the current step. The step completes only when its
completion criteria are met, unless --force is given.

Examples:
  learnroad progress --tasks 3
  learnroad progress --score 0.8 --minutes 40
  learnroad progress --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		plan, err := services.Plan.Progress(cmd.Context(), learning.StepProgress{
			TasksCompleted:   progressTasks,
			SelfTestScore:    progressScore,
			MinutesPracticed: progressMinutes,
		}, progressForce)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, statusDone.Render("Step completed."))
		renderView(w, learning.GetCurrentView(plan))
		return nil
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Skip the current step (requires --confirm)",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		plan, err := services.Plan.Skip(cmd.Context(), skipConfirm)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, statusCurrent.Render("Step skipped."))
		renderView(w, learning.GetCurrentView(plan))
		return nil
	},
}

func init() {
	progressCmd.Flags().IntVar(&progressTasks, "tasks", 0, "Micro-tasks finished in the current step")
	progressCmd.Flags().Float64Var(&progressScore, "score", 0, "Self-test score between 0 and 1")
	progressCmd.Flags().IntVar(&progressMinutes, "minutes", 0, "Minutes practiced")
	progressCmd.Flags().BoolVar(&progressForce, "force", false, "Complete the step even if its criteria are not met")
	skipCmd.Flags().BoolVar(&skipConfirm, "confirm", false, "Confirm that the step should be skipped")
	RootCmd.AddCommand(progressCmd, skipCmd)
}
