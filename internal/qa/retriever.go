// Package qa answers questions from the indexed documents: it searches
// every document index, keeps sufficiently similar chunks, builds a prompt
// and asks an LLM.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/library"
)

// Excerpt is a retrieved chunk together with where it came from.
type Excerpt struct {
	Key          string  `json:"key"`
	Filename     string  `json:"filename"`
	DocumentName string  `json:"document_name,omitempty"`
	Chunk        int     `json:"chunk"`
	Content      string  `json:"content"`
	Score        float32 `json:"score"`
}

// Retriever fans a question out over every document index in a library.
type Retriever struct {
	lib       *library.Library
	embedder  embeddings.Embedder
	topK      int
	threshold float32
	log       *slog.Logger
}

// NewRetriever creates a Retriever that takes up to topK chunks from each
// index and keeps those scoring strictly above threshold.
func NewRetriever(lib *library.Library, embedder embeddings.Embedder, topK int, threshold float64, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		lib:       lib,
		embedder:  embedder,
		topK:      topK,
		threshold: float32(threshold),
		log:       logger,
	}
}

// Retrieve returns matching excerpts from all indexes, best first. The
// question is embedded once and the same vector is used for every index.
// Indexes that fail to load are logged and skipped.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]Excerpt, error) {
	keys, err := r.lib.Keys()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	qvec, err := embeddings.EmbedOne(ctx, r.embedder, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(qvec) == 0 {
		return nil, fmt.Errorf("embedding question: empty vector")
	}

	var out []Excerpt
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		store, err := r.lib.Open(ctx, key, r.embedder)
		if err != nil {
			r.log.Warn("skipping unreadable index", "key", key, "error", err)
			continue
		}
		hits, err := store.SearchEmbedding(ctx, qvec, r.topK)
		if err != nil {
			r.log.Warn("skipping index after search error", "key", key, "error", err)
			continue
		}

		var docName string
		if meta, err := r.lib.Meta(key); err == nil {
			docName = meta.DocumentName
		}

		for _, h := range hits {
			if h.Similarity <= r.threshold {
				continue
			}
			out = append(out, Excerpt{
				Key:          key,
				Filename:     h.Document.Metadata.Filename,
				DocumentName: docName,
				Chunk:        h.Document.Metadata.Chunk,
				Content:      h.Document.Content,
				Score:        h.Similarity,
			})
		}
		r.log.Debug("searched index", "key", key, "hits", len(hits))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
