package vectordb

import "context"

// VectorStore defines the interface for a single document's chunk index.
type VectorStore interface {
	// AddDocuments adds or updates documents in the store.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// SearchEmbedding performs a semantic search with a precomputed query vector.
	SearchEmbedding(ctx context.Context, query []float32, limit int) ([]SearchResult, error)

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of documents in the store.
	Count() int
}
