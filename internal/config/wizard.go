package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docqa! Let's configure your document library.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Default answer model",
		Items: []string{"openai", "grok", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = cfg.ModelFor(cfg.Provider)
	if cfg.Provider == ProviderOllama {
		cfg.EmbeddingProvider = ProviderOllama
		cfg.EmbeddingModel = DefaultOllamaEmbed
	}

	modelPrompt := promptui.Prompt{
		Label:   "Model name",
		Default: cfg.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	dirPrompt := promptui.Prompt{
		Label:   "Directory for document indexes",
		Default: cfg.VectorDir,
	}
	if cfg.VectorDir, err = dirPrompt.Run(); err != nil {
		return nil, fmt.Errorf("vector dir: %w", err)
	}

	thresholdPrompt := promptui.Prompt{
		Label:    "Minimum similarity score for an excerpt",
		Default:  strconv.FormatFloat(cfg.Retrieval.ScoreThreshold, 'f', -1, 64),
		Validate: validateFloat,
	}
	thresholdStr, err := thresholdPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("score threshold: %w", err)
	}
	cfg.Retrieval.ScoreThreshold, _ = strconv.ParseFloat(thresholdStr, 64)

	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns for directory ingest (comma-separated)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Exclude = append(cfg.Exclude, splitAndTrim(excludeStr)...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, p := range []ProviderType{cfg.Provider, cfg.EmbeddingProvider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: set %s in your environment or .env file before ingesting.\n", envVar)
			break
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validateFloat(s string) error {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("not a number")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
