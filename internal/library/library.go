// Package library manages the on-disk collection of per-document indexes.
// Each uploaded file gets its own directory under the root, named by its
// document key, holding the exported vector index and a metadata sidecar.
package library

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// MetadataFile is the sidecar written next to every index.
const MetadataFile = "metadata.json"

var (
	// ErrNotFound is returned for keys with no committed index.
	ErrNotFound = errors.New("document not found")
	// ErrExists is returned when committing a key that is already indexed.
	ErrExists = errors.New("document already indexed")
	// ErrInvalidKey is returned for keys that would escape the library root.
	ErrInvalidKey = errors.New("invalid document key")
)

// Metadata describes one indexed document.
type Metadata struct {
	Filename            string    `json:"filename"`
	DocumentName        string    `json:"document_name"`
	DocumentDescription string    `json:"document_description"`
	FileSize            int64     `json:"file_size"`
	Key                 string    `json:"key"`
	ContentHash         string    `json:"content_hash"`
	Format              string    `json:"format"`
	Chunks              int       `json:"chunks"`
	EmbeddingModel      string    `json:"embedding_model"`
	IndexedAt           time.Time `json:"indexed_at"`
}

// Hash returns the hex md5 of content.
func Hash(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

// Key returns the document key "<filename>_<md5(content)>". Only the base
// name of filename is used.
func Key(filename string, content []byte) string {
	return filepath.Base(filename) + "_" + Hash(content)
}

// Library is a directory of document indexes.
type Library struct {
	root string
	mu   sync.Mutex
}

// New returns a Library rooted at root. The directory is created lazily.
func New(root string) *Library {
	return &Library{root: root}
}

// Root returns the library directory.
func (l *Library) Root() string { return l.root }

// Dir returns the directory holding key's index.
func (l *Library) Dir(key string) string {
	return filepath.Join(l.root, key)
}

// stagingPrefix names the temporary directories Commit builds indexes in.
const stagingPrefix = ".tmp-"

// ValidateKey rejects keys that cannot name a directory directly under the
// library root. Dot-prefixed keys are fine; only the staging prefix is
// reserved.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, stagingPrefix) ||
		strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Has reports whether key has a committed index.
func (l *Library) Has(key string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(l.Dir(key), vectordb.IndexFile))
	return err == nil
}

// Keys returns every committed document key in name order.
func (l *Library) Keys() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading library %s: %w", l.root, err)
	}

	var keys []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), stagingPrefix) {
			continue
		}
		if l.Has(e.Name()) {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Meta reads the sidecar for key.
func (l *Library) Meta(key string) (*Metadata, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if !l.Has(key) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	data, err := os.ReadFile(filepath.Join(l.Dir(key), MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			// Index without sidecar; report what the key itself tells us.
			return &Metadata{Key: key, Filename: filenameFromKey(key)}, nil
		}
		return nil, fmt.Errorf("reading metadata for %s: %w", key, err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing metadata for %s: %w", key, err)
	}
	if m.Key == "" {
		m.Key = key
	}
	return &m, nil
}

// List returns metadata for every committed document, oldest first.
func (l *Library) List() ([]Metadata, error) {
	keys, err := l.Keys()
	if err != nil {
		return nil, err
	}

	out := make([]Metadata, 0, len(keys))
	for _, k := range keys {
		m, err := l.Meta(k)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].IndexedAt.Equal(out[j].IndexedAt) {
			return out[i].IndexedAt.Before(out[j].IndexedAt)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Open loads the index for key.
func (l *Library) Open(ctx context.Context, key string, embedder embeddings.Embedder) (*vectordb.ChromemStore, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if !l.Has(key) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	store, err := vectordb.OpenChromemStore(ctx, embedder, l.Dir(key))
	if err != nil {
		return nil, fmt.Errorf("loading index %s: %w", key, err)
	}
	return store, nil
}

// Commit persists store and meta under key. Both files are written to a
// temporary sibling directory first and renamed into place, so a reader
// never observes an index without its sidecar.
func (l *Library) Commit(ctx context.Context, key string, store vectordb.VectorStore, meta Metadata) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Has(key) {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("creating library %s: %w", l.root, err)
	}

	tmp, err := os.MkdirTemp(l.root, stagingPrefix)
	if err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := store.Persist(ctx, tmp); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}

	meta.Key = key
	if meta.IndexedAt.IsZero() {
		meta.IndexedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, MetadataFile), data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	// A directory without an index file is a leftover; replace it.
	dst := l.Dir(key)
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clearing %s: %w", dst, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("committing %s: %w", key, err)
	}
	return nil
}

// Remove deletes the index and sidecar for key.
func (l *Library) Remove(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.Has(key) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err := os.RemoveAll(l.Dir(key)); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// filenameFromKey strips the trailing "_<md5>" from a key.
func filenameFromKey(key string) string {
	i := strings.LastIndex(key, "_")
	if i <= 0 || len(key)-i-1 != md5.Size*2 {
		return key
	}
	return key[:i]
}
