package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	infraai "github.com/felixgeelhaar/learnroad/pkg/ai"
	"github.com/felixgeelhaar/learnroad/pkg/storage"
)

const (
	DefaultProvider = "ollama"
	DefaultModel    = "llama3"
)

// AIConfig stores provider defaults outside domain policy.
type AIConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url,omitempty"`
	MaxRetries   int    `yaml:"max_retries,omitempty"`
	RetryDelayMs int    `yaml:"retry_delay_ms,omitempty"`
	TimeoutSec   int    `yaml:"timeout_sec,omitempty"`
}

// LoadAIConfig returns nil, nil when .learnroad/ai.yaml does not exist.
func LoadAIConfig(root string) (*AIConfig, error) {
	data, err := storage.NewFilesystemRepository(root).ReadConfig(storage.AIConfigFile)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var cfg AIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AI config: %w", err)
	}
	return &cfg, nil
}

func SaveAIConfig(root string, cfg *AIConfig) error {
	if cfg == nil {
		return fmt.Errorf("AI config is nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal AI config: %w", err)
	}
	return storage.NewFilesystemRepository(root).WriteConfig(storage.AIConfigFile, data)
}

// ProviderConfig fills unset fields with the defaults. Environment overrides
// are applied later by ai.GetDefaultProvider.
func (c *AIConfig) ProviderConfig() infraai.ProviderConfig {
	pc := infraai.ProviderConfig{Provider: DefaultProvider, Model: DefaultModel}
	if c == nil {
		return pc
	}
	if c.Provider != "" {
		pc.Provider = c.Provider
	}
	if c.Model != "" {
		pc.Model = c.Model
	}
	pc.BaseURL = c.BaseURL
	return pc
}

// Validate rejects settings the provider wrapper would not honour.
func (c *AIConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.MaxRetries > infraai.MaxTransportRetries {
		return fmt.Errorf("max_retries %d exceeds the transport budget of %d", c.MaxRetries, infraai.MaxTransportRetries)
	}
	if c.RetryDelayMs < 0 || c.TimeoutSec < 0 {
		return fmt.Errorf("retry_delay_ms and timeout_sec must not be negative")
	}
	return nil
}

// Resilience maps the retry fields onto the provider wrapper's config.
// max_retries above the transport budget is capped.
func (c *AIConfig) Resilience() infraai.ResilienceConfig {
	rc := infraai.DefaultResilienceConfig()
	if c == nil {
		return rc
	}
	if c.MaxRetries != 0 {
		rc.MaxRetries = min(c.MaxRetries, infraai.MaxTransportRetries)
	}
	if c.RetryDelayMs > 0 {
		rc.RetryDelay = time.Duration(c.RetryDelayMs) * time.Millisecond
	}
	if c.TimeoutSec > 0 {
		rc.Timeout = time.Duration(c.TimeoutSec) * time.Second
	}
	return rc
}

// GitHubToken enables the GitHub resource lookup when set.
func GitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}
