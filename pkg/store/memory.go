package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]snapshot.Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]snapshot.Snapshot)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, sha string, snap snapshot.Snapshot) error {
	shaErr := checkSHA(sha)
	if shaErr != nil {
		return shaErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snaps[sha]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, sha)
	}

	s.snaps[sha] = lo.Map(persistable(snap), func(rec snapshot.FileRecord, _ int) snapshot.FileRecord {
		return rec.WithoutKey()
	})

	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, sha string) (snapshot.Snapshot, error) {
	shaErr := checkSHA(sha)
	if shaErr != nil {
		return nil, shaErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[sha]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sha)
	}

	return snap.Clone(), nil
}
