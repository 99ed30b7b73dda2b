package vectordb

// Document is one chunk of an uploaded file, stored in that file's index.
type Document struct {
	ID        string
	Content   string
	Metadata  DocumentMetadata
	Embedding []float32 // optional; computed by the store when empty
}

// DocumentMetadata ties a chunk back to the file it came from.
type DocumentMetadata struct {
	Key      string // document key, "<filename>_<md5>"
	Filename string
	Chunk    int
}

// SearchResult pairs a document with its cosine similarity to the query.
type SearchResult struct {
	Document   Document
	Similarity float32
}
