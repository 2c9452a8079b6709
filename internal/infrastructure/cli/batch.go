package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/learnroad/pkg/application"
)

var (
	batchConcurrency int
	batchJSON        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Generate plans for many goals concurrently",
	Long: `Generate plans for every goal in a file.

Each non-empty line is a goal. A line starting with "{" is read as a JSON
object with goal, subject, user_context and memory_context fields. Use "-" to
read from stdin. Lines starting with "#" are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			// #nosec G304 -- user-supplied path for a read-only command
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}
		inputs, err := readBatchInputs(r)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no goals in %s", args[0])
		}

		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		outs, err := services.Pipeline.RunBatch(cmd.Context(), inputs, batchConcurrency)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if batchJSON {
			return writeJSON(w, outs)
		}
		for i, out := range outs {
			fmt.Fprintf(w, "%s %s\n", titleStyle.Render(fmt.Sprintf("%d", i+1)), inputs[i].Goal)
			fmt.Fprintf(w, "  %s: %d steps, %d days, now: %s\n", out.Title, out.TotalSteps, out.EstimatedDays, out.CurrentStep.Title)
		}
		return nil
	},
}

func readBatchInputs(r io.Reader) ([]application.PipelineInput, error) {
	var inputs []application.PipelineInput
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.HasPrefix(text, "{") {
			var in application.PipelineInput
			if err := json.Unmarshal([]byte(text), &in); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			inputs = append(inputs, in)
			continue
		}
		inputs = append(inputs, application.PipelineInput{Goal: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read goals: %w", err)
	}
	return inputs, nil
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "Number of plans generated in parallel")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(batchCmd)
}
