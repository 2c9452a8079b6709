package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/config"
)

var (
	cfgProvider   string
	cfgModel      string
	cfgBaseURL    string
	cfgMaxRetries int
	cfgTimeoutSec int
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the AI provider settings in .learnroad/ai.yaml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective AI settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.LoadAIConfig(root)
		if err != nil {
			return err
		}
		pc := cfg.ProviderConfig()
		rc := cfg.Resilience()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "provider: %s\nmodel: %s\n", pc.Provider, pc.Model)
		if pc.BaseURL != "" {
			fmt.Fprintf(w, "base_url: %s\n", pc.BaseURL)
		}
		fmt.Fprintf(w, "max_retries: %d\nretry_delay: %s\ntimeout: %s\n", rc.MaxRetries, rc.RetryDelay, rc.Timeout)
		if cfg == nil {
			fmt.Fprintln(w, mutedStyle.Render("(defaults; no .learnroad/ai.yaml)"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the AI settings",
	Long: `Update the AI settings. Only the flags given are changed.

Examples:
  learnroad config set --provider openai --model gpt-4o-mini
  learnroad config set --provider ollama --base-url http://localhost:11434`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.LoadAIConfig(root)
		if err != nil {
			return err
		}
		if cfg == nil {
			cfg = &config.AIConfig{Provider: config.DefaultProvider, Model: config.DefaultModel}
		}
		flags := cmd.Flags()
		if flags.Changed("provider") {
			cfg.Provider = cfgProvider
		}
		if flags.Changed("model") {
			cfg.Model = cfgModel
		}
		if flags.Changed("base-url") {
			cfg.BaseURL = cfgBaseURL
		}
		if flags.Changed("max-retries") {
			cfg.MaxRetries = cfgMaxRetries
		}
		if flags.Changed("timeout") {
			cfg.TimeoutSec = cfgTimeoutSec
		}
		if err := cfg.Validate(); err != nil {
			return &CLIError{Message: err.Error(), Hint: "Use --max-retries 0 or 1.", Err: err}
		}
		if err := config.SaveAIConfig(root, cfg); err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	configSetCmd.Flags().StringVar(&cfgProvider, "provider", "", "AI provider (ollama, openai, anthropic, gemini, langchain, mock)")
	configSetCmd.Flags().StringVar(&cfgModel, "model", "", "Model name")
	configSetCmd.Flags().StringVar(&cfgBaseURL, "base-url", "", "Provider base URL")
	configSetCmd.Flags().IntVar(&cfgMaxRetries, "max-retries", 0, "Retries per generation call")
	configSetCmd.Flags().IntVar(&cfgTimeoutSec, "timeout", 0, "Timeout per generation call in seconds")
	configCmd.AddCommand(configShowCmd, configSetCmd)
	RootCmd.AddCommand(configCmd)
}
