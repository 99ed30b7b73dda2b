package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// GrokBaseURL is xAI's OpenAI-compatible endpoint.
const GrokBaseURL = "https://api.x.ai/v1"

// CompatibleProvider implements Provider for any endpoint speaking the
// OpenAI Chat Completions protocol. OpenAI, Grok and Ollama all use it.
type CompatibleProvider struct {
	name    string
	baseURL string
	client  *openai.Client
	model   string
}

// NewCompatibleProvider creates a provider for an OpenAI-compatible API.
// An empty baseURL targets api.openai.com.
func NewCompatibleProvider(name, apiKey, baseURL, model string) *CompatibleProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &CompatibleProvider{
		name:    name,
		baseURL: cfg.BaseURL,
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
	}
}

// NewOpenAIProvider creates a provider for the OpenAI API.
func NewOpenAIProvider(apiKey, model string) *CompatibleProvider {
	return NewCompatibleProvider("openai", apiKey, "", model)
}

// NewGrokProvider creates a provider for xAI's Grok models.
func NewGrokProvider(apiKey, model string) *CompatibleProvider {
	return NewCompatibleProvider("grok", apiKey, GrokBaseURL, model)
}

// NewOllamaProvider creates a provider for a local Ollama server through
// its /v1 endpoint. Ollama ignores the API key but the client sends one.
func NewOllamaProvider(host, model string) *CompatibleProvider {
	return NewCompatibleProvider("ollama", "ollama", strings.TrimRight(host, "/")+"/v1", model)
}

func (p *CompatibleProvider) Name() string {
	return p.name
}

func (p *CompatibleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", p.name, err)
	}

	out := &CompletionResponse{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = string(resp.Choices[0].FinishReason)
	}
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}
