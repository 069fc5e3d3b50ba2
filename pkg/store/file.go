package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/bundlesize/pkg/persist"
	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

const dirPerm = 0o750

// FileStore keeps one LZ4-compressed JSON archive per SHA in a directory.
type FileStore struct {
	dir   string
	codec persist.Codec
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	return NewFileStoreWithCodec(dir, persist.NewLZ4JSONCodec())
}

// NewFileStoreWithCodec is NewFileStore with an explicit archive codec.
func NewFileStoreWithCodec(dir string, codec persist.Codec) (*FileStore, error) {
	mkErr := os.MkdirAll(dir, dirPerm)
	if mkErr != nil {
		return nil, fmt.Errorf("create store directory: %w", mkErr)
	}

	return &FileStore{dir: dir, codec: codec}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the archive path for sha.
func (s *FileStore) Path(sha string) string {
	return filepath.Join(s.dir, persist.FileName(Key(sha), s.codec))
}

// Codec returns the archive codec.
func (s *FileStore) Codec() persist.Codec {
	return s.codec
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, sha string, snap snapshot.Snapshot) error {
	shaErr := checkSHA(sha)
	if shaErr != nil {
		return shaErr
	}

	exists, err := persist.Exists(s.dir, Key(sha), s.codec)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, sha)
	}

	saveErr := persist.SaveState(s.dir, Key(sha), s.codec, persistable(snap))
	if saveErr != nil {
		return fmt.Errorf("save snapshot %s: %w", sha, saveErr)
	}

	return nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, sha string) (snapshot.Snapshot, error) {
	shaErr := checkSHA(sha)
	if shaErr != nil {
		return nil, shaErr
	}

	var raw json.RawMessage

	loadErr := persist.LoadState(s.dir, Key(sha), s.codec, &raw)
	if errors.Is(loadErr, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sha)
	}

	if loadErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, loadErr)
	}

	return Parse(raw)
}
