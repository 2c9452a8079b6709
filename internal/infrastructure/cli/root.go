package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/observability"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath string
	logLevel    string
	logFormat   string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "learnroad",
	Version: Version,
	Short:   "Turn a learning goal into a staged plan and work through it",
	Long: `learnroad turns a learning goal into a staged, quality-checked plan.
Only the current step is fully detailed; later steps stay locked until the
current one is done. Plans live in .learnroad/ under the project directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := observability.SetupLogger(os.Stderr, logLevel, logFormat)
		return err
	},
}

// ExecuteContext runs the root command and prints mapped errors with hints.
func ExecuteContext(ctx context.Context) error {
	err := RootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	err = MapError(err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cliErr.Hint)
	}
	return err
}

// Execute is ExecuteContext with a background context.
func Execute() error {
	return ExecuteContext(context.Background())
}

func init() {
	RootCmd.PersistentFlags().StringVar(&projectPath, "project", "", "Project directory holding .learnroad/ (default: current directory)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}
