package ai

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
)

// ProviderConfig selects and configures a generation backend.
type ProviderConfig struct {
	Provider string
	Model    string
	BaseURL  string
}

func NewProvider(cfg ProviderConfig) (ai.Provider, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaProviderWithClient(cfg.Model, ollamaEndpoint(cfg.BaseURL), nil), nil
	case "mock":
		return &MockProvider{Model: cfg.Model}, nil
	case "openai":
		return NewOpenAIProviderWithClient(cfg.Model, os.Getenv("OPENAI_API_KEY"), cfg.BaseURL, nil), nil
	case "anthropic":
		return NewAnthropicProviderWithClient(cfg.Model, os.Getenv("ANTHROPIC_API_KEY"), cfg.BaseURL, nil), nil
	case "gemini":
		return NewGeminiProviderWithClient(cfg.Model, os.Getenv("GEMINI_API_KEY"), cfg.BaseURL, nil), nil
	case "langchain":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewLangchainOpenAIProvider(model, os.Getenv("OPENAI_API_KEY"), cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

func ollamaEndpoint(base string) string {
	if base == "" {
		return ""
	}
	return base + "/api/generate"
}

// GetDefaultProvider applies LEARNROAD_AI_PROVIDER and LEARNROAD_AI_MODEL over cfg.
func GetDefaultProvider(cfg ProviderConfig) (ai.Provider, error) {
	if envProvider := os.Getenv("LEARNROAD_AI_PROVIDER"); envProvider != "" {
		cfg.Provider = envProvider
	}
	if envModel := os.Getenv("LEARNROAD_AI_MODEL"); envModel != "" {
		cfg.Model = envModel
	}
	return NewProvider(cfg)
}
