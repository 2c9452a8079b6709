package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var usageJSON bool

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show generation call and token statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		stats := services.Workspace.Usage.GetUsage()

		w := cmd.OutOrStdout()
		if usageJSON {
			return writeJSON(w, stats)
		}
		fmt.Fprintf(w, "Provider: %s\n", services.Provider.ID())
		fmt.Fprintf(w, "Calls: %d (%d failed)\n", stats.TotalCalls, stats.FailedCalls)
		if !stats.LastCallAt.IsZero() {
			fmt.Fprintf(w, "Last call: %s\n", stats.LastCallAt.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(w, "Tokens: %d\n", stats.TotalTokens())
		keys := make([]string, 0, len(stats.Tokens))
		for k := range stats.Tokens {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-24s %d\n", k, stats.Tokens[k])
		}
		return nil
	},
}

func init() {
	usageCmd.Flags().BoolVar(&usageJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(usageCmd)
}
