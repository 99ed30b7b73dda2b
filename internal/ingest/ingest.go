// Package ingest turns uploaded files into committed per-document indexes:
// extract text, split it into chunks, embed the chunks and persist them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/extract"
	"github.com/ziadkadry99/docqa/internal/library"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// Status is the outcome of a single upload.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusDuplicate Status = "already_processed"
	StatusEmpty     Status = "empty"
	StatusFailed    Status = "failed"
)

// User-facing messages for each outcome.
const (
	MsgProcessed = "File processed successfully."
	MsgDuplicate = "File already processed."
	MsgEmpty     = "No text extracted from the file. Check the file content."
	msgFailed    = "Error processing file: "
)

// Upload is one file handed to the ingestor.
type Upload struct {
	Filename    string
	Content     []byte
	Name        string // optional display name
	Description string // optional free text
}

// Result reports what happened to an upload.
type Result struct {
	Status   Status `json:"status"`
	Message  string `json:"message"`
	Key      string `json:"key,omitempty"`
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

// Ingestor processes uploads into the library.
type Ingestor struct {
	lib        *library.Library
	extractors *extract.Registry
	splitter   *chunker.Splitter
	embedder   embeddings.Embedder
	log        *slog.Logger
}

// New creates an Ingestor. A nil logger uses slog.Default().
func New(lib *library.Library, extractors *extract.Registry, splitter *chunker.Splitter, embedder embeddings.Embedder, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		lib:        lib,
		extractors: extractors,
		splitter:   splitter,
		embedder:   embedder,
		log:        logger,
	}
}

// Supported returns the file extensions the ingestor accepts.
func (i *Ingestor) Supported() []string {
	return i.extractors.Supported()
}

// Ingest processes one upload. The returned error is non-nil only for
// StatusFailed; the Result always carries a user-facing message.
func (i *Ingestor) Ingest(ctx context.Context, up Upload) (Result, error) {
	filename := filepath.Base(strings.TrimSpace(up.Filename))
	res := Result{Filename: filename}

	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return i.fail(res, errors.New("missing filename"))
	}

	key := library.Key(filename, up.Content)
	if err := library.ValidateKey(key); err != nil {
		return i.fail(res, err)
	}
	res.Key = key
	log := i.log.With("key", key)

	if i.lib.Has(key) {
		log.Debug("upload already indexed")
		res.Status, res.Message = StatusDuplicate, MsgDuplicate
		return res, nil
	}

	text, err := i.extractors.Extract(ctx, filename, up.Content)
	if err != nil {
		return i.fail(res, err)
	}

	chunks, err := i.splitter.Split(text)
	if err != nil {
		return i.fail(res, err)
	}
	if len(chunks) == 0 {
		log.Info("no text extracted", "filename", filename)
		res.Status, res.Message = StatusEmpty, MsgEmpty
		return res, nil
	}

	vecs, err := i.embedder.Embed(ctx, chunks)
	if err != nil {
		return i.fail(res, fmt.Errorf("embedding chunks: %w", err))
	}
	if len(vecs) != len(chunks) {
		return i.fail(res, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks)))
	}

	store, err := vectordb.NewChromemStore(i.embedder)
	if err != nil {
		return i.fail(res, err)
	}
	docs := make([]vectordb.Document, len(chunks))
	for n, c := range chunks {
		docs[n] = vectordb.Document{
			ID:        key + ":" + strconv.Itoa(n),
			Content:   c,
			Metadata:  vectordb.DocumentMetadata{Key: key, Filename: filename, Chunk: n},
			Embedding: vecs[n],
		}
	}
	if err := store.AddDocuments(ctx, docs); err != nil {
		return i.fail(res, fmt.Errorf("building index: %w", err))
	}

	meta := library.Metadata{
		Filename:            filename,
		DocumentName:        up.Name,
		DocumentDescription: up.Description,
		FileSize:            int64(len(up.Content)),
		ContentHash:         library.Hash(up.Content),
		Format:              strings.ToLower(filepath.Ext(filename)),
		Chunks:              len(chunks),
		EmbeddingModel:      i.embedder.Name(),
	}
	if err := i.lib.Commit(ctx, key, store, meta); err != nil {
		if errors.Is(err, library.ErrExists) {
			// Another upload of the same content won the race.
			res.Status, res.Message = StatusDuplicate, MsgDuplicate
			return res, nil
		}
		return i.fail(res, err)
	}

	log.Info("document indexed", "filename", filename, "chunks", len(chunks), "bytes", len(up.Content))
	res.Status, res.Message, res.Chunks = StatusProcessed, MsgProcessed, len(chunks)
	return res, nil
}

// Remove deletes an indexed document.
func (i *Ingestor) Remove(key string) error {
	if err := i.lib.Remove(key); err != nil {
		return err
	}
	i.log.Info("document removed", "key", key)
	return nil
}

func (i *Ingestor) fail(res Result, err error) (Result, error) {
	i.log.Warn("ingest failed", "filename", res.Filename, "error", err)
	res.Status = StatusFailed
	res.Message = msgFailed + err.Error()
	return res, err
}
