package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
)

var (
	scoreFile string
	scoreJSON bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [text]",
	Short: "Rate learning content against the quality doctrine",
	Long: `Rate learning content against the quality doctrine.

Text comes from the arguments or from --file. The verdict is pass,
regenerate or fallback, with the rule violations that drove the score down.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if scoreFile != "" {
			// #nosec G304 -- user-supplied path for a read-only command
			data, err := os.ReadFile(scoreFile)
			if err != nil {
				return fmt.Errorf("read %s: %w", scoreFile, err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return errors.New("nothing to score: pass text or --file")
		}

		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		report := application.NewQualityEnforcer(services.Doctrine).Score(text)

		w := cmd.OutOrStdout()
		if scoreJSON {
			return writeJSON(w, report)
		}
		verdict := string(report.Verdict)
		switch report.Verdict {
		case doctrine.VerdictPass:
			verdict = statusDone.Render(verdict)
		case doctrine.VerdictRegenerate:
			verdict = statusCurrent.Render(verdict)
		default:
			verdict = warnStyle.Render(verdict)
		}
		fmt.Fprintf(w, "Score: %d  Verdict: %s\n", report.Score, verdict)
		for _, v := range report.Violations {
			fmt.Fprintf(w, "  - [%s] %s %q: %s\n", v.Severity, v.Rule, v.Match, v.Fix)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "Read the text to score from a file")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(scoreCmd)
}
