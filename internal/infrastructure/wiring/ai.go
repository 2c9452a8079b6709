package wiring

import (
	"github.com/felixgeelhaar/learnroad/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/learnroad/pkg/ai"
	domainai "github.com/felixgeelhaar/learnroad/pkg/domain/ai"
)

// LoadAIProvider reads .learnroad/ai.yaml, applies env overrides and wraps
// the backend in the retrying provider.
func LoadAIProvider(root string) (domainai.Provider, error) {
	cfg, err := config.LoadAIConfig(root)
	if err != nil {
		return nil, err
	}

	baseProvider, err := infraai.GetDefaultProvider(cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}

	return infraai.NewResilientProviderWithConfig(baseProvider, cfg.Resilience()), nil
}
