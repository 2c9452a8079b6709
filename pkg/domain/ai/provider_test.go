package ai

import (
	"context"
	"fmt"
	"testing"
)

// mockProvider implements the Provider interface for testing.
type mockProvider struct {
	id       string
	response *CompletionResponse
	err      error
	last     CompletionRequest
}

func (m *mockProvider) ID() string { return m.id }
func (m *mockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func TestProvider_InterfaceContract(t *testing.T) {
	var _ Provider = &mockProvider{}
}

func TestProvider_Complete_Success(t *testing.T) {
	provider := &mockProvider{
		id: "test-provider",
		response: &CompletionResponse{
			Text:  `{"hint":"factor first"}`,
			Model: "test-model",
			Usage: TokenUsage{InputTokens: 10, OutputTokens: 5},
		},
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Prompt:      "Give a hint",
		System:      "You are a tutor",
		Temperature: 0.3,
		MaxTokens:   600,
		JSONMode:    true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != `{"hint":"factor first"}` {
		t.Errorf("Text = %s", resp.Text)
	}
	if resp.Usage.Total() != 15 {
		t.Errorf("Total = %d, want 15", resp.Usage.Total())
	}
	if !provider.last.JSONMode || provider.last.MaxTokens != 600 {
		t.Errorf("request not passed through: %+v", provider.last)
	}
}

func TestProvider_Complete_Error(t *testing.T) {
	provider := &mockProvider{
		id:  "error-provider",
		err: fmt.Errorf("connection refused"),
	}

	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "test"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "connection refused" {
		t.Errorf("error = %v, want connection refused", err)
	}
}
