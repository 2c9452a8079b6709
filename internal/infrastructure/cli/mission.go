package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	missionJSON bool
	hintJSON    bool
)

var missionCmd = &cobra.Command{
	Use:   "mission",
	Short: "Show today's mission for the current step",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		m, err := services.Plan.TodaysMission(cmd.Context())
		if err != nil {
			return err
		}
		if missionJSON {
			return writeJSON(cmd.OutOrStdout(), m)
		}
		renderMission(cmd.OutOrStdout(), m)
		return nil
	},
}

var hintCmd = &cobra.Command{
	Use:   "hint [question]",
	Short: "Get a hint for the current step",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		h, err := services.Plan.Hint(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if hintJSON {
			return writeJSON(cmd.OutOrStdout(), h)
		}
		renderHint(cmd.OutOrStdout(), h)
		return nil
	},
}

func init() {
	missionCmd.Flags().BoolVar(&missionJSON, "json", false, "Output in JSON format")
	hintCmd.Flags().BoolVar(&hintJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(missionCmd, hintCmd)
}
