package config

import "path/filepath"

// Default model names per provider.
const (
	DefaultOpenAIModel    = "gpt-4"
	DefaultGrokModel      = "grok-2-latest"
	DefaultOllamaModel    = "llama3"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultOllamaEmbed    = "nomic-embed-text"
)

// DefaultExcludes are glob patterns skipped when ingesting a directory.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"vectordb/**",
	".docqa/**",
	"~$*",
	"**/~$*",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             DefaultOpenAIModel,
		GrokModel:         DefaultGrokModel,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    DefaultEmbeddingModel,
		VectorDir:         "vectordb",
		DataDir:           ".docqa",
		Chunking: Chunking{
			Size:    500,
			Overlap: 50,
		},
		Retrieval: Retrieval{
			TopK:           3,
			ScoreThreshold: 0.3,
			MaxExcerpts:    3,
		},
		Generation: Generation{
			MaxTokens:   150,
			Temperature: 0.2,
		},
		MaxUploadMB:     25,
		WatchDebounceMS: 500,
		Include:         []string{"**"},
		Exclude:         DefaultExcludes,
	}
}

// HistoryPath is the location of the question log database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// ModelFor returns the completion model configured for the given provider.
func (c *Config) ModelFor(p ProviderType) string {
	switch p {
	case ProviderGrok:
		if c.GrokModel != "" {
			return c.GrokModel
		}
		return DefaultGrokModel
	case ProviderOllama:
		if c.Provider == ProviderOllama && c.Model != "" {
			return c.Model
		}
		return DefaultOllamaModel
	default:
		if c.Provider == ProviderOpenAI && c.Model != "" {
			return c.Model
		}
		return DefaultOpenAIModel
	}
}
