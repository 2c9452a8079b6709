package ai_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	infraAI "github.com/felixgeelhaar/learnroad/pkg/ai"
	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
)

type flakyProvider struct {
	failures int
	calls    int
}

func (f *flakyProvider) ID() string { return "flaky" }
func (f *flakyProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return &ai.CompletionResponse{Text: "{}"}, nil
}

type blockingProvider struct{}

func (blockingProvider) ID() string { return "blocking" }
func (blockingProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func fastConfig() infraAI.ResilienceConfig {
	return infraAI.ResilienceConfig{RetryDelay: time.Millisecond, Timeout: time.Second}
}

func TestResilientProvider_ID_Delegates(t *testing.T) {
	inner := &infraAI.MockProvider{Model: "test-model"}
	p := infraAI.NewResilientProvider(inner)
	if p.ID() != "mock:test-model" {
		t.Errorf("expected ID 'mock:test-model', got %q", p.ID())
	}
}

func TestResilientProvider_DefaultConfig(t *testing.T) {
	cfg := infraAI.DefaultResilienceConfig()
	if cfg.MaxRetries != 1 {
		t.Errorf("expected MaxRetries 1, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != time.Second {
		t.Errorf("expected RetryDelay 1s, got %v", cfg.RetryDelay)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("expected Timeout 45s, got %v", cfg.Timeout)
	}
}

func TestResilientProvider_ZeroConfig(t *testing.T) {
	p := infraAI.NewResilientProviderWithConfig(&infraAI.MockProvider{}, infraAI.ResilienceConfig{})
	if p.Config() != infraAI.DefaultResilienceConfig() {
		t.Errorf("zero config should take defaults, got %+v", p.Config())
	}
	p = infraAI.NewResilientProviderWithConfig(&infraAI.MockProvider{}, infraAI.ResilienceConfig{MaxRetries: -1})
	if p.Config().MaxRetries != 0 {
		t.Errorf("negative retries should disable retries, got %d", p.Config().MaxRetries)
	}
}

func TestResilientProvider_RetriesOnce(t *testing.T) {
	inner := &flakyProvider{failures: 1}
	p := infraAI.NewResilientProviderWithConfig(inner, fastConfig())

	resp, attempts, err := p.CompleteCounted(context.Background(), ai.CompletionRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("expected success after one retry: %v", err)
	}
	if resp.Text != "{}" || attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestResilientProvider_GivesUpAfterBudget(t *testing.T) {
	inner := &flakyProvider{failures: 10}
	p := infraAI.NewResilientProviderWithConfig(inner, fastConfig())

	_, attempts, err := p.CompleteCounted(context.Background(), ai.CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected failure")
	}
	if attempts != 2 || inner.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d (calls %d)", attempts, inner.calls)
	}
}

func TestResilientProvider_Timeout(t *testing.T) {
	cfg := infraAI.ResilienceConfig{MaxRetries: -1, RetryDelay: time.Millisecond, Timeout: 20 * time.Millisecond}
	p := infraAI.NewResilientProviderWithConfig(blockingProvider{}, cfg)

	start := time.Now()
	_, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestResilientProvider_CapsRetries(t *testing.T) {
	inner := &flakyProvider{failures: 10}
	cfg := fastConfig()
	cfg.MaxRetries = 5
	p := infraAI.NewResilientProviderWithConfig(inner, cfg)
	if p.Config().MaxRetries != infraAI.MaxTransportRetries {
		t.Errorf("expected retries capped at %d, got %d", infraAI.MaxTransportRetries, p.Config().MaxRetries)
	}

	_, attempts, err := p.CompleteCounted(context.Background(), ai.CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected failure")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

type failingProvider struct {
	err   error
	calls int
}

func (f *failingProvider) ID() string { return "failing" }
func (f *failingProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	f.calls++
	return nil, f.err
}

func TestResilientProvider_FinalErrorsNotRetried(t *testing.T) {
	tests := map[string]struct {
		err   error
		calls int
	}{
		"unauthorized":   {&infraAI.StatusError{Provider: "OpenAI", StatusCode: http.StatusUnauthorized}, 1},
		"bad request":    {&infraAI.StatusError{Provider: "OpenAI", StatusCode: http.StatusBadRequest}, 1},
		"not configured": {fmt.Errorf("no key: %w", infraAI.ErrNotConfigured), 1},
		"canceled":       {context.Canceled, 1},
		"rate limited":   {&infraAI.StatusError{Provider: "OpenAI", StatusCode: http.StatusTooManyRequests}, 2},
		"server error":   {&infraAI.StatusError{Provider: "OpenAI", StatusCode: http.StatusBadGateway}, 2},
		"network":        {errors.New("connection reset"), 2},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			inner := &failingProvider{err: tt.err}
			p := infraAI.NewResilientProviderWithConfig(inner, fastConfig())
			if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"}); err == nil {
				t.Fatal("expected failure")
			}
			if inner.calls != tt.calls {
				t.Errorf("expected %d calls, got %d", tt.calls, inner.calls)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	err := &infraAI.StatusError{Provider: "Gemini", StatusCode: http.StatusServiceUnavailable}
	if err.Error() != "Gemini API returned status: 503 Service Unavailable" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if infraAI.IsRetryable(nil) {
		t.Error("nil error should not be retryable")
	}
}
