package embeddings

import (
	"os"
	"strings"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// NewOllamaEmbedder creates an embedder backed by a local Ollama instance
// through its OpenAI-compatible /v1 endpoint. host falls back to
// $OLLAMA_HOST, then http://localhost:11434.
func NewOllamaEmbedder(model string, dimensions int, host string) *OpenAIEmbedder {
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaBaseURL
	}
	e := NewOpenAIEmbedder("ollama", OpenAIModel(model), strings.TrimRight(host, "/")+"/v1")
	e.dims = dimensions
	return e
}
