// Package walker discovers ingestible documents under a directory tree.
package walker

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the largest document the walker will return (25 MB).
const DefaultMaxFileSize int64 = 25 << 20

// FileInfo describes one document found during traversal.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Slash-separated path relative to the root.
	Size        int64
	Format      string // Lower-case extension, e.g. ".pdf".
	ContentHash string // MD5 hex digest, the same hash used in document keys.
}

// WalkerConfig controls the behaviour of the Walk function.
type WalkerConfig struct {
	RootDir     string
	Include     []string // Glob patterns; empty includes everything.
	Exclude     []string // Glob patterns matched against the relative path.
	Extensions  []string // Allowed extensions; empty allows any.
	MaxFileSize int64    // 0 uses DefaultMaxFileSize.
}

// Walk traverses the tree rooted at config.RootDir and returns every file
// that has an allowed extension and passes the include/exclude filters.
// Hidden files, Office lock files and entries listed in a root .gitignore
// are skipped.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	ignored := loadGitignore(filepath.Join(root, ".gitignore"))

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && shouldExcludeDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || IsTransient(name) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil || matchesGitignore(relPath, ignored) {
			return nil
		}

		info, err := d.Info()
		if err != nil || !config.Allowed(relPath, info.Size()) {
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			return nil
		}

		files = append(files, FileInfo{
			Path:        path,
			RelPath:     filepath.ToSlash(relPath),
			Size:        info.Size(),
			Format:      strings.ToLower(filepath.Ext(name)),
			ContentHash: hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	return files, nil
}

// Allowed applies the extension, include/exclude and size rules of config
// to one file, given its path relative to the root. Walk uses it for every
// file it visits; callers watching single files use it to stay consistent.
func (config WalkerConfig) Allowed(relPath string, size int64) bool {
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if size > maxSize {
		return false
	}

	if len(config.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(relPath))
		found := false
		for _, e := range config.Extensions {
			if strings.ToLower(e) == ext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return MatchesInclude(relPath, config.Include) && !MatchesExclude(relPath, config.Exclude)
}

// IsTransient reports whether name is a hidden, temporary or editor lock
// file that should never be ingested.
func IsTransient(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, "~$") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".tmp") ||
		strings.HasSuffix(name, ".crdownload") ||
		strings.HasSuffix(name, ".part")
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// loadGitignore returns the non-comment lines of a .gitignore file.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

// matchesGitignore supports the common subset of gitignore syntax: bare
// names match any path component, patterns with a slash match the whole
// relative path, and a trailing slash restricts a pattern to directories.
func matchesGitignore(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	parts := strings.Split(normalized, "/")

	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimPrefix(strings.TrimSuffix(pattern, "/"), "/")

		if strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, normalized); ok {
				return true
			}
			if strings.HasPrefix(normalized, pattern+"/") {
				return true
			}
			continue
		}

		// Directory components exclude everything beneath them; the last
		// component is the file itself.
		for i, part := range parts {
			isFile := i == len(parts)-1
			if dirOnly && isFile {
				continue
			}
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}
