package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/docqa/internal/ingest"
)

type fakeIngester struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeIngester) IngestFile(_ context.Context, path, _, _ string) (ingest.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filepath.Base(path))
	return ingest.Result{Status: ingest.StatusProcessed, Filename: filepath.Base(path)}, nil
}

func (f *fakeIngester) Supported() []string { return []string{".pdf", ".txt"} }

func (f *fakeIngester) getCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func startWatcher(t *testing.T, dir string, ing Ingester, configure ...func(*Watcher)) (*Watcher, chan string) {
	t.Helper()
	w := New(dir, ing, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, c := range configure {
		c(w)
	}
	done := make(chan string, 16)
	w.OnIngest = func(path string, _ ingest.Result, _ error) { done <- filepath.Base(path) }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Watch(ctx))
	return w, done
}

func waitFor(t *testing.T, done <-chan string) string {
	t.Helper()
	select {
	case name := <-done:
		return name
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for ingest")
		return ""
	}
}

func Test_Watch(t *testing.T) {
	dir := t.TempDir()
	ing := &fakeIngester{}
	_, done := startWatcher(t, dir, ing)

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	write("notes.txt", "first")
	assert.Equal(t, "notes.txt", waitFor(t, done))

	write("report.pdf", "%PDF")
	assert.Equal(t, "report.pdf", waitFor(t, done))

	// Unsupported, hidden and lock files are ignored.
	write("image.png", "png")
	write(".hidden.txt", "x")
	write("~$draft.txt", "x")
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, []string{"notes.txt", "report.pdf"}, ing.getCalls())
}

func Test_WatchDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	ing := &fakeIngester{}
	_, done := startWatcher(t, dir, ing)

	path := filepath.Join(dir, "growing.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("more text ")
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	assert.Equal(t, "growing.txt", waitFor(t, done))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"growing.txt"}, ing.getCalls())
}

func Test_WatchAppliesFilters(t *testing.T) {
	dir := t.TempDir()
	ing := &fakeIngester{}
	_, done := startWatcher(t, dir, ing, func(w *Watcher) {
		w.Exclude = []string{"draft-*"}
		w.MaxFileSize = 16
	})

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("draft-plan.txt", "short")
	write("big.txt", "this file is well over sixteen bytes")
	write("ok.txt", "short")

	assert.Equal(t, "ok.txt", waitFor(t, done))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"ok.txt"}, ing.getCalls())
}

func Test_ScheduleAfterFireSendsOnce(t *testing.T) {
	ing := &fakeIngester{}
	w := New(t.TempDir(), ing, 100*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan string)

	w.schedule(ctx, "a.txt", ready)
	// The timer fires and blocks handing the path over.
	time.Sleep(200 * time.Millisecond)

	// A write arriving after the fire gets a fresh timer.
	w.schedule(ctx, "a.txt", ready)
	w.ingest(ctx, <-ready)

	// Another write within the quiet period only delays that timer.
	w.schedule(ctx, "a.txt", ready)

	sends := 0
	timeout := time.After(500 * time.Millisecond)
loop:
	for {
		select {
		case <-ready:
			sends++
		case <-timeout:
			break loop
		}
	}
	assert.Equal(t, 1, sends)

	w.mu.Lock()
	assert.Empty(t, w.pending)
	w.mu.Unlock()
}

func Test_WatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	ing := &fakeIngester{}
	w := New(dir, ing, 20*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Watch(ctx))
	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.txt"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, ing.getCalls())
}

func Test_WatchMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), &fakeIngester{}, 0, nil)
	assert.Error(t, w.Watch(context.Background()))
	assert.Equal(t, DefaultDebounce, w.debounce)
}
