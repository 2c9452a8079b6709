package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/watch"
)

var (
	watchDebounce time.Duration
	watchOnce     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Plan goal files dropped into a directory",
	Long: `Watch a directory for goal files (*.goal, *.txt, *.md). Each new or
changed file is planned and answered with <name>.plan.json next to it.

A goal file holds the goal as free text, plus optional "subject:",
"context:" and "memory:" lines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "goals"
		if len(args) > 0 {
			dir = args[0]
		}
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		inbox := watch.NewInbox(dir, services.Pipeline,
			watch.WithDebounce(watchDebounce),
			watch.WithLogger(slog.Default()),
			watch.WithOnResult(func(r watch.Result) {
				if r.Err != nil {
					fmt.Fprintf(w, "%s %s: %v\n", warnStyle.Render("failed"), r.GoalPath, r.Err)
					return
				}
				fmt.Fprintf(w, "%s %s -> %s\n", statusDone.Render("planned"), r.GoalPath, r.PlanPath)
			}),
		)

		if watchOnce {
			_, err := inbox.Scan(cmd.Context())
			return err
		}
		fmt.Fprintf(w, "Watching %s for goal files...\n", dir)
		err = inbox.Run(cmd.Context())
		if errors.Is(err, cmd.Context().Err()) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period before a changed file is planned")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Plan pending files and exit")
	RootCmd.AddCommand(watchCmd)
}
