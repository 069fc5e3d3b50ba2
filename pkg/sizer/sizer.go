// Package sizer resolves build artifacts under a root directory and measures
// their raw and gzip-compressed sizes.
package sizer

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"

	"github.com/Sumatoshi-tech/bundlesize/pkg/safeconv"
	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

// CompressionLevel is the fixed gzip level used for compressed sizes.
const CompressionLevel = gzip.BestCompression

// Sentinel errors.
var (
	ErrEmptyRoot    = errors.New("root directory is required")
	ErrOutsideRoot  = errors.New("path is outside the root directory")
	ErrNotRegular   = errors.New("path is not a regular file")
	ErrFileTooLarge = errors.New("file exceeds the maximum size")
	ErrBadPattern   = errors.New("invalid file pattern")
)

// Sizer measures files relative to a fixed root directory.
type Sizer struct {
	root        string
	maxFileSize uint64
}

// Option configures a Sizer.
type Option func(*Sizer)

// WithMaxFileSize rejects files larger than limit bytes. Zero means no limit.
func WithMaxFileSize(limit uint64) Option {
	return func(s *Sizer) {
		s.maxFileSize = limit
	}
}

// New creates a Sizer rooted at root, which is made absolute.
func New(root string, opts ...Option) (*Sizer, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	s := &Sizer{root: abs}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Root returns the absolute root directory.
func (s *Sizer) Root() string {
	return s.root
}

// Resolve expands doublestar patterns relative to the root into a sorted,
// de-duplicated list of absolute paths to regular files.
func (s *Sizer) Resolve(patterns []string) ([]string, error) {
	fsys := os.DirFS(s.root)

	var matches []string

	for _, pattern := range patterns {
		rel, relErr := s.relativePattern(pattern)
		if relErr != nil {
			return nil, relErr
		}

		if !doublestar.ValidatePattern(rel) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}

		found, globErr := doublestar.Glob(fsys, rel)
		if globErr != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, globErr)
		}

		for _, match := range found {
			full := filepath.Join(s.root, filepath.FromSlash(match))

			info, statErr := os.Stat(full)
			if statErr != nil {
				return nil, fmt.Errorf("stat %s: %w", full, statErr)
			}

			if info.Mode().IsRegular() {
				matches = append(matches, full)
			}
		}
	}

	matches = lo.Uniq(matches)
	sort.Strings(matches)

	return matches, nil
}

// relativePattern returns pattern as a clean slash path relative to the root,
// the form fs.FS globbing requires ("./dist/*.js" becomes "dist/*.js").
func (s *Sizer) relativePattern(pattern string) (string, error) {
	if !filepath.IsAbs(pattern) {
		rel := path.Clean(filepath.ToSlash(pattern))
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, pattern)
		}

		return rel, nil
	}

	rel, err := filepath.Rel(s.root, pattern)
	if err != nil || isOutside(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, pattern)
	}

	return filepath.ToSlash(rel), nil
}

// Measure produces one record per path. Relative paths are taken relative to
// the root. A path listed twice is measured once.
func (s *Sizer) Measure(paths []string) (snapshot.Snapshot, error) {
	snap := make(snapshot.Snapshot, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))

	for _, path := range paths {
		rec, err := s.measureOne(path)
		if err != nil {
			return nil, err
		}

		if _, dup := seen[rec.Name]; dup {
			continue
		}

		seen[rec.Name] = struct{}{}
		snap = append(snap, rec)
	}

	return snap, nil
}

// Collect resolves the patterns and measures every match.
func (s *Sizer) Collect(patterns []string) (snapshot.Snapshot, error) {
	paths, err := s.Resolve(patterns)
	if err != nil {
		return nil, err
	}

	return s.Measure(paths)
}

func (s *Sizer) measureOne(path string) (snapshot.FileRecord, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.root, full)
	}

	full = filepath.Clean(full)

	rel, relErr := filepath.Rel(s.root, full)
	if relErr != nil || isOutside(rel) {
		return snapshot.FileRecord{}, fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	info, statErr := os.Stat(full)
	if statErr != nil {
		return snapshot.FileRecord{}, fmt.Errorf("stat %s: %w", full, statErr)
	}

	if !info.Mode().IsRegular() {
		return snapshot.FileRecord{}, fmt.Errorf("%w: %s", ErrNotRegular, full)
	}

	size := safeconv.MustInt64ToUint64(info.Size())
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return snapshot.FileRecord{}, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, full, size)
	}

	compressed, gzErr := compressedFileSize(full)
	if gzErr != nil {
		return snapshot.FileRecord{}, gzErr
	}

	return snapshot.FileRecord{
		Name:           filepath.ToSlash(rel),
		Relative:       rel,
		Full:           full,
		Size:           size,
		CompressedSize: compressed,
	}, nil
}

func compressedFileSize(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	size, err := CompressedSize(file)
	if err != nil {
		return 0, fmt.Errorf("compress %s: %w", path, err)
	}

	return size, nil
}

// CompressedSize returns the exact number of bytes gzip produces for r at
// CompressionLevel. The output is counted, never buffered.
func CompressedSize(r io.Reader) (uint64, error) {
	var counter countingWriter

	zw, err := gzip.NewWriterLevel(&counter, CompressionLevel)
	if err != nil {
		return 0, fmt.Errorf("gzip writer: %w", err)
	}

	_, copyErr := io.Copy(zw, r)
	if copyErr != nil {
		return 0, fmt.Errorf("gzip copy: %w", copyErr)
	}

	closeErr := zw.Close()
	if closeErr != nil {
		return 0, fmt.Errorf("gzip close: %w", closeErr)
	}

	return counter.n, nil
}

type countingWriter struct {
	n uint64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += uint64(len(p))

	return len(p), nil
}

func isOutside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
