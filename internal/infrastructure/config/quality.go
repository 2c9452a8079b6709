package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
	"github.com/felixgeelhaar/learnroad/pkg/storage"
)

// QualityConfig overrides the doctrine thresholds and rewrite table.
type QualityConfig struct {
	VagueRewrites    []doctrine.RewriteRule `yaml:"vague_rewrites,omitempty"`
	PassScore        int                    `yaml:"pass_score,omitempty"`
	RegenerateScore  int                    `yaml:"regenerate_score,omitempty"`
	MaxRegenerations int                    `yaml:"max_regenerations,omitempty"`
}

// LoadQualityConfig returns nil, nil when .learnroad/quality.yaml does not exist.
func LoadQualityConfig(root string) (*QualityConfig, error) {
	data, err := storage.NewFilesystemRepository(root).ReadConfig(storage.QualityConfigFile)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var cfg QualityConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quality config: %w", err)
	}
	return &cfg, nil
}

// Doctrine builds the rule set, validated. A nil config yields the default.
func (c *QualityConfig) Doctrine() (*doctrine.Doctrine, error) {
	if c == nil {
		return doctrine.Default(), nil
	}
	d, err := doctrine.New(doctrine.Options{
		PassScore:        c.PassScore,
		RegenerateScore:  c.RegenerateScore,
		MaxRegenerations: c.MaxRegenerations,
		VagueRewrites:    c.VagueRewrites,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid quality config: %w", err)
	}
	return d, nil
}

// LoadDoctrine reads quality.yaml and builds the doctrine from it.
func LoadDoctrine(root string) (*doctrine.Doctrine, error) {
	cfg, err := LoadQualityConfig(root)
	if err != nil {
		return nil, err
	}
	return cfg.Doctrine()
}
