// Package extract turns uploaded file contents into plain text, dispatching
// on the file extension.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions with no registered
// extractor.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor converts raw file contents into text.
type Extractor interface {
	Extract(ctx context.Context, content []byte) (string, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, content []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, content []byte) (string, error) {
	return f(ctx, content)
}

// Registry maps lower-case file extensions (".pdf") to extractors.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// Default returns a registry with every built-in format registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(".pdf", PDF{})
	r.Register(".docx", DOCX{})
	r.Register(".txt", Text{})
	r.Register(".xlsx", XLSX{})
	r.Register(".csv", CSV{})
	return r
}

// Register adds or replaces the extractor for ext.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[normalizeExt(ext)] = e
}

// Lookup returns the extractor for filename's extension.
func (r *Registry) Lookup(filename string) (Extractor, bool) {
	e, ok := r.byExt[normalizeExt(filepath.Ext(filename))]
	return e, ok
}

// CanRead reports whether filename has a registered extractor.
func (r *Registry) CanRead(filename string) bool {
	_, ok := r.Lookup(filename)
	return ok
}

// Extract dispatches content to the extractor registered for filename.
func (r *Registry) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	e, ok := r.Lookup(filename)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.Extract(ctx, content)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", filename, err)
	}
	return text, nil
}

// Supported returns the registered extensions in sorted order.
func (r *Registry) Supported() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
