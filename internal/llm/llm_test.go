package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Tests ---

func TestMockProviderRecordsCalls(t *testing.T) {
	mock := NewMockProvider("test")
	ctx := context.Background()

	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}

	resp, err := mock.Complete(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}

	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}

	if mock.Calls[0].Model != "test-model" {
		t.Errorf("expected model 'test-model', got %q", mock.Calls[0].Model)
	}
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	tests := []struct {
		provider string
		envVar   string
	}{
		{"openai", "OPENAI_API_KEY"},
		{"grok", "XAI_API_KEY"},
	}
	for _, tt := range tests {
		t.Setenv(tt.envVar, "")
		if _, err := NewProvider(tt.provider, "model"); err == nil {
			t.Errorf("%s: expected error when %s is unset", tt.provider, tt.envVar)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	if _, err := NewProvider("anthropic", "claude"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestFactoryCreatesOllamaWithoutAPIKey(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://custom:11434")
	p, err := NewProvider("ollama", "llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, ok := p.(*CompatibleProvider)
	if !ok {
		t.Fatalf("expected *CompatibleProvider, got %T", p)
	}
	if op.Name() != "ollama" {
		t.Errorf("Name() = %q, want ollama", op.Name())
	}
	if op.baseURL != "http://custom:11434/v1" {
		t.Errorf("baseURL = %q", op.baseURL)
	}
}

func TestFactoryCreatesGrokProvider(t *testing.T) {
	t.Setenv("XAI_API_KEY", "xai-test")
	p, err := NewProvider("grok", "grok-2-latest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "grok" {
		t.Errorf("Name() = %q, want grok", p.Name())
	}
}

func TestFactoryCreatesOpenAIProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	p, err := NewProvider("openai", "gpt-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", p.Name())
	}
}

func TestCompatibleProviderSendsRequest(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-123" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","model":"grok-2-latest",
			"choices":[{"index":0,"message":{"role":"assistant","content":"42"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`)
	}))
	defer srv.Close()

	p := NewCompatibleProvider("grok", "key-123", srv.URL, "grok-2-latest")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: "What is the answer?"}},
		MaxTokens:   150,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if got.Model != "grok-2-latest" || got.MaxTokens != 150 {
		t.Errorf("request model/max_tokens = %q/%d", got.Model, got.MaxTokens)
	}
	if got.Temperature < 0.19 || got.Temperature > 0.21 {
		t.Errorf("temperature = %f, want 0.2", got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if resp.Content != "42" || resp.InputTokens != 12 || resp.OutputTokens != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
}

func TestCompatibleProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	p := NewCompatibleProvider("openai", "nope", srv.URL, "gpt-4")
	_, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil || !strings.Contains(err.Error(), "openai completion") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestRegistryResolvesLazily(t *testing.T) {
	var built []string
	r := NewRegistry(map[string]Choice{
		"openai": {Provider: "openai", Model: "gpt-4"},
		"grok":   {Provider: "grok", Model: "grok-2-latest"},
	}, "openai", 0)
	r.factory = func(providerType, model string) (Provider, error) {
		built = append(built, providerType+"/"+model)
		return NewMockProvider(providerType), nil
	}

	p, model, err := r.Resolve("")
	if err != nil {
		t.Fatalf("Resolve(\"\"): %v", err)
	}
	if p.Name() != "openai" || model != "gpt-4" {
		t.Errorf("fallback resolved to %s/%s", p.Name(), model)
	}

	p, model, err = r.Resolve("grok")
	if err != nil {
		t.Fatalf("Resolve(grok): %v", err)
	}
	if p.Name() != "grok" || model != "grok-2-latest" {
		t.Errorf("grok resolved to %s/%s", p.Name(), model)
	}

	// Cached on second use.
	if _, _, err := r.Resolve("grok"); err != nil {
		t.Fatal(err)
	}
	if len(built) != 2 {
		t.Errorf("expected 2 providers built, got %v", built)
	}

	if _, _, err := r.Resolve("claude"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}

	if got := r.Choices(); len(got) != 2 || got[0] != "grok" || got[1] != "openai" {
		t.Errorf("Choices() = %v", got)
	}
}

func TestRegistryFactoryError(t *testing.T) {
	r := NewRegistry(map[string]Choice{"grok": {Provider: "grok", Model: "grok-2-latest"}}, "grok", 0)
	r.factory = func(string, string) (Provider, error) { return nil, errors.New("XAI_API_KEY environment variable is not set") }

	_, _, err := r.Resolve("grok")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "XAI_API_KEY") {
		t.Errorf("expected the factory's reason in %v", err)
	}
}

func TestRegistryRegisterAndRateLimit(t *testing.T) {
	r := NewRegistry(nil, "mock", 30)
	mock := NewMockProvider("mock")
	r.Register("mock", "mock-model", mock)

	p, model, err := r.Resolve("mock")
	if err != nil {
		t.Fatal(err)
	}
	if p != Provider(mock) || model != "mock-model" {
		t.Errorf("Register not honoured: %T %s", p, model)
	}

	r2 := NewRegistry(map[string]Choice{"openai": {Provider: "openai", Model: "gpt-4"}}, "openai", 30)
	r2.factory = func(pt, _ string) (Provider, error) { return NewMockProvider(pt), nil }
	p, _, err = r2.Resolve("openai")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*RateLimitedProvider); !ok {
		t.Errorf("expected rate-limited provider, got %T", p)
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 60)

	ctx := context.Background()
	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}

	resp, err := rl.Complete(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	// Allow only 2 requests per minute.
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}

	// First two should succeed immediately.
	for i := 0; i < 2; i++ {
		_, err := rl.Complete(ctx, req)
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	// Third should block and eventually fail due to context timeout.
	_, err := rl.Complete(ctx, req)
	if err == nil {
		t.Error("expected error due to rate limiting + context timeout")
	}
}

func TestEstimateCostKnownModels(t *testing.T) {
	for _, model := range []string{"gpt-4", "gpt-4o", "grok-2-latest"} {
		if cost := EstimateCost(model, 1000, 500); cost <= 0 {
			t.Errorf("EstimateCost(%q) = %f, expected > 0", model, cost)
		}
	}
}

func TestEstimateCostUnknownModel(t *testing.T) {
	cost := EstimateCost("unknown-model", 1000, 500)
	if cost != 0 {
		t.Errorf("expected 0 for unknown model, got %f", cost)
	}
}

func TestEstimateCostAccuracy(t *testing.T) {
	// gpt-4: $30/1M input, $60/1M output
	cost := EstimateCost("gpt-4", 1_000_000, 1_000_000)
	expected := 90.0
	if cost < expected-0.01 || cost > expected+0.01 {
		t.Errorf("expected cost ~$%.2f, got $%.2f", expected, cost)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"hello world!!", 3},
		{"a longer piece of text that has more characters", 11},
	}

	for _, tt := range tests {
		got := EstimateTokens(tt.text)
		if got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestRoles(t *testing.T) {
	if RoleSystem != "system" {
		t.Errorf("RoleSystem = %q, want 'system'", RoleSystem)
	}
	if RoleUser != "user" {
		t.Errorf("RoleUser = %q, want 'user'", RoleUser)
	}
	if RoleAssistant != "assistant" {
		t.Errorf("RoleAssistant = %q, want 'assistant'", RoleAssistant)
	}
}
