package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/felixgeelhaar/learnroad/pkg/domain/ai"
)

// LangchainProvider adapts any langchaingo model to the Provider port.
type LangchainProvider struct {
	name  string
	model llms.Model
}

// NewLangchainProvider wraps an already constructed langchaingo model.
func NewLangchainProvider(name string, model llms.Model) *LangchainProvider {
	return &LangchainProvider{name: name, model: model}
}

// NewLangchainOpenAIProvider builds a langchaingo OpenAI client. baseURL may
// point at any OpenAI-compatible endpoint (OpenRouter, vLLM, LM Studio).
func NewLangchainOpenAIProvider(model, apiKey, baseURL string) (*LangchainProvider, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}
	return NewLangchainProvider(model, llm), nil
}

func (p *LangchainProvider) ID() string {
	return "langchain:" + p.name
}

func (p *LangchainProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})

	opts := []llms.CallOption{llms.WithTemperature(float64(req.Temperature))}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := p.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("langchain model returned no choices")
	}
	choice := resp.Choices[0]
	return &ai.CompletionResponse{
		Text:  choice.Content,
		Model: p.name,
		Usage: ai.TokenUsage{
			InputTokens:  intInfo(choice.GenerationInfo, "PromptTokens"),
			OutputTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		},
	}, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
