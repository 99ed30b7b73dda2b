package llm

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// ErrUnknownModel is returned when a question names a model choice the
// registry does not know.
var ErrUnknownModel = errors.New("unknown model choice")

// ErrProviderUnavailable is returned when a known model choice cannot be
// used because its provider is misconfigured, e.g. a missing API key.
var ErrProviderUnavailable = errors.New("llm provider unavailable")

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "openai", "grok", "ollama".
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewCompatibleProvider("openai", apiKey, os.Getenv("OPENAI_BASE_URL"), model), nil

	case "grok":
		apiKey := os.Getenv("XAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("XAI_API_KEY environment variable is not set")
		}
		return NewGrokProvider(apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// Choice binds a user-facing model choice to a provider type and model.
type Choice struct {
	Provider string
	Model    string
}

// Registry resolves model choices ("openai", "grok", ...) to providers.
// Providers are constructed on first use, so a missing API key only
// fails questions that actually select that provider.
type Registry struct {
	mu        sync.Mutex
	choices   map[string]Choice
	providers map[string]Provider
	fallback  string
	rpm       int
	factory   func(providerType, model string) (Provider, error)
}

// NewRegistry creates a Registry. fallback is used for empty choices; rpm
// > 0 wraps every provider in a rate limiter.
func NewRegistry(choices map[string]Choice, fallback string, rpm int) *Registry {
	return &Registry{
		choices:   choices,
		providers: make(map[string]Provider),
		fallback:  fallback,
		rpm:       rpm,
		factory:   NewProvider,
	}
}

// Register installs a ready-made provider for choice, replacing any
// lazily built one.
func (r *Registry) Register(choice string, model string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.choices == nil {
		r.choices = make(map[string]Choice)
	}
	r.choices[choice] = Choice{Provider: p.Name(), Model: model}
	r.providers[choice] = p
}

// Choices returns the known choice names in sorted order.
func (r *Registry) Choices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.choices))
	for name := range r.choices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the provider and model for choice.
func (r *Registry) Resolve(choice string) (Provider, string, error) {
	if choice == "" {
		choice = r.fallback
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.choices[choice]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownModel, choice)
	}
	if p, ok := r.providers[choice]; ok {
		return p, c.Model, nil
	}

	p, err := r.factory(c.Provider, c.Model)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, choice, err)
	}
	if r.rpm > 0 {
		p = NewRateLimitedProvider(p, r.rpm)
	}
	r.providers[choice] = p
	return p, c.Model, nil
}
