package ai

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
)

// MaxTransportRetries is the most retries one generation call may make.
const MaxTransportRetries = 1

// ResilienceConfig bounds transport retries and the per-call deadline.
// MaxRetries counts retries after the first attempt; a negative value disables
// them and values above MaxTransportRetries are capped.
type ResilienceConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// DefaultResilienceConfig allows one transport retry inside a 45 second budget.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxRetries: 1,
		RetryDelay: time.Second,
		Timeout:    45 * time.Second,
	}
}

type ResilientProvider struct {
	inner ai.Provider
	cfg   ResilienceConfig
}

func NewResilientProvider(inner ai.Provider) *ResilientProvider {
	return NewResilientProviderWithConfig(inner, DefaultResilienceConfig())
}

// NewResilientProviderWithConfig fills zero fields from the defaults.
func NewResilientProviderWithConfig(inner ai.Provider, cfg ResilienceConfig) *ResilientProvider {
	def := DefaultResilienceConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxRetries > MaxTransportRetries {
		cfg.MaxRetries = MaxTransportRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &ResilientProvider{inner: inner, cfg: cfg}
}

func (p *ResilientProvider) ID() string {
	return p.inner.ID()
}

// Config returns the effective resilience settings.
func (p *ResilientProvider) Config() ResilienceConfig {
	return p.cfg
}

func (p *ResilientProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	resp, _, err := p.CompleteCounted(ctx, req)
	return resp, err
}

// CompleteCounted is Complete that also reports how many attempts were made.
func (p *ResilientProvider) CompleteCounted(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, int, error) {
	var attempts atomic.Int32

	r := retry.New[*ai.CompletionResponse](retry.Config{
		MaxAttempts:   p.cfg.MaxRetries + 1,
		InitialDelay:  p.cfg.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
		IsRetryable:   IsRetryable,
	})
	t := timeout.New[*ai.CompletionResponse](timeout.Config{
		DefaultTimeout: p.cfg.Timeout,
	})

	resp, err := t.Execute(ctx, p.cfg.Timeout, func(ctx context.Context) (*ai.CompletionResponse, error) {
		return r.Do(ctx, func(ctx context.Context) (*ai.CompletionResponse, error) {
			attempts.Add(1)
			return p.inner.Complete(ctx, req)
		})
	})
	return resp, int(attempts.Load()), err
}
