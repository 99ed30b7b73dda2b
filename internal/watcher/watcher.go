// Package watcher ingests documents as they appear in a directory.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ziadkadry99/docqa/internal/ingest"
	"github.com/ziadkadry99/docqa/internal/walker"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// Ingester is the subset of ingest.Ingestor the watcher needs.
type Ingester interface {
	IngestFile(ctx context.Context, path, name, description string) (ingest.Result, error)
	Supported() []string
}

// Watcher ingests supported files created or written in a directory.
type Watcher struct {
	root     string
	ing      Ingester
	debounce time.Duration
	log      *slog.Logger

	// OnIngest, when set, is called after every ingest attempt.
	OnIngest func(path string, res ingest.Result, err error)

	// Include, Exclude and MaxFileSize filter files the same way a
	// directory ingest does. Zero values accept everything up to
	// walker.DefaultMaxFileSize.
	Include     []string
	Exclude     []string
	MaxFileSize int64

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a Watcher for root. A non-positive debounce uses
// DefaultDebounce.
func New(root string, ing Ingester, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:     root,
		ing:      ing,
		debounce: debounce,
		log:      logger,
		pending:  make(map[string]*time.Timer),
	}
}

// Watch starts watching and returns once the watch is established. Events
// are handled in the background until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watching %s: not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	ready := make(chan string)
	go w.loop(ctx, fsw, ready)
	w.log.Info("watching directory", "dir", w.root, "debounce", w.debounce)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, ready chan string) {
	defer fsw.Close()
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.wanted(ev.Name) {
				continue
			}
			w.schedule(ctx, ev.Name, ready)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)

		case path := <-ready:
			w.ingest(ctx, path)
		}
	}
}

// wanted reports whether path is a regular, supported, non-transient file
// that passes the include/exclude globs and the size limit.
func (w *Watcher) wanted(path string) bool {
	if walker.IsTransient(filepath.Base(path)) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	filter := walker.WalkerConfig{
		Include:     w.Include,
		Exclude:     w.Exclude,
		Extensions:  w.ing.Supported(),
		MaxFileSize: w.MaxFileSize,
	}
	return filter.Allowed(rel, info.Size())
}

// schedule (re)starts the debounce timer for path. A timer that already
// fired is replaced rather than reset, so each quiet period sends path
// exactly once.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
	w.pending[path] = t
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	res, err := w.ing.IngestFile(ctx, path, "", "")
	switch {
	case err != nil:
		w.log.Warn("watch ingest failed", "path", path, "error", err)
	case res.Status == ingest.StatusProcessed:
		w.log.Info("watch ingested file", "path", path, "key", res.Key, "chunks", res.Chunks)
	default:
		w.log.Debug("watch skipped file", "path", path, "status", res.Status)
	}
	if w.OnIngest != nil {
		w.OnIngest(path, res, err)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
