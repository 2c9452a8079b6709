package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/learnroad/pkg/application"
)

var (
	planSubject string
	planContext string
	planMemory  string
	planJSON    bool
	planDebug   bool
	planSave    bool
)

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Generate a staged learning plan for a goal",
	Long: `Generate a staged learning plan for a goal.

The goal is free text; a timeframe such as "in 2 weeks" shapes the schedule.

Examples:
  learnroad plan "Pass my calculus exam in 2 weeks"
  learnroad plan --subject spanish --context "I know basic greetings" "Hold a conversation in 30 days"
  learnroad plan --save --json "Learn Go for backend work"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		goal := strings.Join(args, " ")
		ctx := cmd.Context()

		out, err := services.Pipeline.Run(ctx, application.PipelineInput{
			Goal:          goal,
			Subject:       planSubject,
			UserContext:   planContext,
			MemoryContext: planMemory,
			Debug:         planDebug,
		})
		if err != nil {
			return err
		}
		if planSave {
			if _, err := services.Plan.CreateFromOutput(ctx, goal, planSubject, out); err != nil {
				return fmt.Errorf("save plan: %w", err)
			}
		}

		w := cmd.OutOrStdout()
		if planJSON {
			return writeJSON(w, out)
		}
		renderPlanOutput(w, out)
		if planSave {
			fmt.Fprintln(w)
			fmt.Fprintln(w, mutedStyle.Render("Saved. Run 'learnroad mission' for today's work."))
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planSubject, "subject", "", "Subject used for resource lookup")
	planCmd.Flags().StringVar(&planContext, "context", "", "What you already know or have")
	planCmd.Flags().StringVar(&planMemory, "memory", "", "Notes from earlier sessions")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output in JSON format")
	planCmd.Flags().BoolVar(&planDebug, "debug", false, "Include per-phase provenance")
	planCmd.Flags().BoolVar(&planSave, "save", false, "Store the plan as the current plan")
	RootCmd.AddCommand(planCmd)
}
