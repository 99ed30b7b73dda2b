package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/ziadkadry99/docqa/internal/progress"
	"github.com/ziadkadry99/docqa/internal/walker"
)

// IngestFile reads path from disk and ingests it.
func (i *Ingestor) IngestFile(ctx context.Context, path, name, description string) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return i.fail(Result{Filename: path}, fmt.Errorf("reading %s: %w", path, err))
	}
	return i.Ingest(ctx, Upload{
		Filename:    path,
		Content:     content,
		Name:        name,
		Description: description,
	})
}

// DirOptions configures IngestDir.
type DirOptions struct {
	Root        string
	Include     []string
	Exclude     []string
	MaxFileSize int64
	Reporter    progress.Reporter
}

// FileResult pairs a walked path with its outcome.
type FileResult struct {
	Path string `json:"path"`
	Result
}

// BatchResult summarises a directory ingest.
type BatchResult struct {
	Files      []FileResult `json:"files"`
	Processed  int          `json:"processed"`
	Duplicates int          `json:"duplicates"`
	Empty      int          `json:"empty"`
	Failed     int          `json:"failed"`
}

// Add records the outcome for one file.
func (b *BatchResult) Add(path string, r Result) {
	b.Files = append(b.Files, FileResult{Path: path, Result: r})
	switch r.Status {
	case StatusProcessed:
		b.Processed++
	case StatusDuplicate:
		b.Duplicates++
	case StatusEmpty:
		b.Empty++
	default:
		b.Failed++
	}
}

// Merge appends every file of other.
func (b *BatchResult) Merge(other *BatchResult) {
	for _, f := range other.Files {
		b.Add(f.Path, f.Result)
	}
}

// IngestDir walks opts.Root and ingests every supported file, one at a
// time. Per-file failures are recorded in the result; only a walk error or
// context cancellation aborts the batch.
func (i *Ingestor) IngestDir(ctx context.Context, opts DirOptions) (*BatchResult, error) {
	files, err := walker.Walk(walker.WalkerConfig{
		RootDir:     opts.Root,
		Include:     opts.Include,
		Exclude:     opts.Exclude,
		Extensions:  i.Supported(),
		MaxFileSize: opts.MaxFileSize,
	})
	if err != nil {
		return nil, err
	}

	rep := opts.Reporter
	if rep == nil {
		rep = progress.Nop{}
	}
	rep.Start(len(files))
	defer rep.Finish()

	result := &BatchResult{}
	for n, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rep.Update(n+1, f.RelPath)
		r, _ := i.IngestFile(ctx, f.Path, "", "")
		result.Add(f.RelPath, r)
	}

	i.log.Info("directory ingested",
		"root", opts.Root,
		"processed", result.Processed,
		"duplicates", result.Duplicates,
		"empty", result.Empty,
		"failed", result.Failed,
	)
	return result, nil
}
