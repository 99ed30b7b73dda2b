package embeddings

import (
	"fmt"
	"os"
)

// ollamaDimensions lists output sizes of common Ollama embedding models.
var ollamaDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"snowflake-arctic-embed": 1024,
}

// New creates an Embedder for the named provider ("openai" or "ollama").
// OpenAI requires OPENAI_API_KEY; OPENAI_BASE_URL is honoured when set.
func New(provider, model string) (Embedder, error) {
	switch provider {
	case "", "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model), os.Getenv("OPENAI_BASE_URL")), nil
	case "ollama":
		if model == "" {
			model = "nomic-embed-text"
		}
		dims, ok := ollamaDimensions[model]
		if !ok {
			dims = 768
		}
		return NewOllamaEmbedder(model, dims, ""), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
