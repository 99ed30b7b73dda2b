package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/db"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/extract"
	"github.com/ziadkadry99/docqa/internal/history"
	"github.com/ziadkadry99/docqa/internal/ingest"
	"github.com/ziadkadry99/docqa/internal/library"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/qa"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docqa init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// app bundles the components most commands need.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	lib      *library.Library
	embedder embeddings.Embedder
	ingestor *ingest.Ingestor
	answerer *qa.Answerer
	history  *history.Store
	db       *db.DB
}

// appOptions selects the optional parts of an app.
type appOptions struct {
	// history opens the question log and records answers into it.
	history bool
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	embedder, err := embeddings.New(string(cfg.EmbeddingProvider), cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	splitter, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      logger,
		lib:      library.New(cfg.VectorDir),
		embedder: embedder,
	}
	a.ingestor = ingest.New(a.lib, extract.Default(), splitter, embedder, logger)

	var recorder qa.Recorder
	if opts.history {
		database, err := db.Open(cfg.HistoryPath())
		if err != nil {
			logger.Warn("question history disabled", "path", cfg.HistoryPath(), "error", err)
		} else {
			a.db = database
			a.history = history.NewStore(database)
			recorder = a.history
		}
	}

	retriever := qa.NewRetriever(a.lib, embedder, cfg.Retrieval.TopK, cfg.Retrieval.ScoreThreshold, logger)
	a.answerer = qa.NewAnswerer(retriever, modelRegistry(cfg), qa.Options{
		MaxExcerpts: cfg.Retrieval.MaxExcerpts,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
	}, recorder, logger)

	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// modelRegistry exposes every provider as a model choice. Providers are
// built lazily, so a missing API key only matters when that choice is used.
func modelRegistry(cfg *config.Config) *llm.Registry {
	choices := make(map[string]llm.Choice)
	for _, p := range []config.ProviderType{config.ProviderOpenAI, config.ProviderGrok, config.ProviderOllama} {
		choices[string(p)] = llm.Choice{Provider: string(p), Model: cfg.ModelFor(p)}
	}
	return llm.NewRegistry(choices, string(cfg.Provider), cfg.Generation.RPM)
}

// openHistory opens the question log on its own, for commands that only
// read it.
func openHistory() (*history.Store, *db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(cfg.HistoryPath())
	if err != nil {
		return nil, nil, err
	}
	return history.NewStore(database), database, nil
}

// parseSince turns a --since flag (duration like 24h, or an RFC 3339 time)
// into a time.
func parseSince(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		t := time.Now().Add(-d)
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid --since %q: use a duration like 24h or an RFC 3339 time", s)
	}
	return &t, nil
}

// truncate shortens s to at most limit runes, never splitting a rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
