package vectordb

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/docqa/internal/embeddings"
)

const (
	collectionName = "chunks"

	// IndexFile is the name of the exported index inside a document directory.
	IndexFile = "index.gob.gz"
)

var _ VectorStore = (*ChromemStore)(nil)

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
	}, nil
}

// OpenChromemStore loads the index persisted in dir.
func OpenChromemStore(ctx context.Context, embedder embeddings.Embedder, dir string) (*ChromemStore, error) {
	s, err := NewChromemStore(embedder)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx, dir); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  metadataToMap(doc.Metadata),
			Embedding: doc.Embedding,
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	limit, ok := s.capLimit(limit)
	if !ok {
		return nil, nil
	}

	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	return toSearchResults(results), nil
}

func (s *ChromemStore) SearchEmbedding(ctx context.Context, query []float32, limit int) ([]SearchResult, error) {
	limit, ok := s.capLimit(limit)
	if !ok {
		return nil, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, normalize(query), limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	return toSearchResults(results), nil
}

// capLimit clamps limit to the collection size; chromem-go rejects
// nResults larger than the number of stored documents.
func (s *ChromemStore) capLimit(limit int) (int, bool) {
	count := s.collection.Count()
	if count == 0 {
		return 0, false
	}
	if limit <= 0 {
		limit = 10
	}
	return min(limit, count), true
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, IndexFile), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(filepath.Join(dir, IndexFile), "")
	if err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

func toSearchResults(results []chromem.Result) []SearchResult {
	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return out
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// metadataToMap converts DocumentMetadata to a flat map[string]string for chromem.
func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"key":      m.Key,
		"filename": m.Filename,
		"chunk":    strconv.Itoa(m.Chunk),
	}
}

// mapToMetadata converts a flat map[string]string back to DocumentMetadata.
func mapToMetadata(m map[string]string) DocumentMetadata {
	chunk, _ := strconv.Atoi(m["chunk"])
	return DocumentMetadata{
		Key:      m["key"],
		Filename: m["filename"],
		Chunk:    chunk,
	}
}
