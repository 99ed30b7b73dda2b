package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGrok   ProviderType = "grok"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level docqa configuration, corresponding to .docqa.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	GrokModel         string       `yaml:"grok_model" koanf:"grok_model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	VectorDir         string       `yaml:"vector_dir" koanf:"vector_dir"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	Retrieval         Retrieval    `yaml:"retrieval" koanf:"retrieval"`
	Chunking          Chunking     `yaml:"chunking" koanf:"chunking"`
	Generation        Generation   `yaml:"generation" koanf:"generation"`
	MaxUploadMB       int          `yaml:"max_upload_mb" koanf:"max_upload_mb"`
	WatchDebounceMS   int          `yaml:"watch_debounce_ms" koanf:"watch_debounce_ms"`
	Include           []string     `yaml:"include" koanf:"include"`
	Exclude           []string     `yaml:"exclude" koanf:"exclude"`
}

// Chunking controls how extracted text is split before embedding.
type Chunking struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// Retrieval controls the fan-out search over document indexes.
type Retrieval struct {
	TopK           int     `yaml:"top_k" koanf:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold" koanf:"score_threshold"`
	MaxExcerpts    int     `yaml:"max_excerpts" koanf:"max_excerpts"`
}

// Generation holds the completion parameters sent with every question.
type Generation struct {
	MaxTokens   int     `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature float64 `yaml:"temperature" koanf:"temperature"`
	RPM         int     `yaml:"rpm" koanf:"rpm"`
}
