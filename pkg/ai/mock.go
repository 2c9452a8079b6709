package ai

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
)

// MockProvider replays scripted responses. Responses are consumed in order and
// the last one repeats; with none scripted it answers "{}". It is safe for
// concurrent use.
type MockProvider struct {
	Model     string
	Responses []string
	// Err, when set, fails every call.
	Err error
	// Handler, when set, overrides Responses and Err.
	Handler func(req ai.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []ai.CompletionRequest
}

func (m *MockProvider) ID() string {
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	var text string
	switch {
	case m.Handler != nil:
		t, err := m.Handler(req)
		if err != nil {
			return nil, err
		}
		text = t
	case m.Err != nil:
		return nil, m.Err
	case len(m.Responses) == 0:
		text = "{}"
	case n < len(m.Responses):
		text = m.Responses[n]
	default:
		text = m.Responses[len(m.Responses)-1]
	}
	return &ai.CompletionResponse{
		Text:  text,
		Model: m.Model,
		Usage: ai.TokenUsage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(text) / 4},
	}, nil
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.CompletionRequest(nil), m.requests...)
}

// Calls returns the number of requests received so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
