// Package store persists file size snapshots keyed by commit SHA.
//
// Snapshots are write-once: the first Save for a SHA wins and later saves
// fail with ErrAlreadyExists. A snapshot that was never stored loads as
// ErrNotFound; one whose backing artifact has been purged loads as ErrExpired.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

// KeySuffix is appended to a commit SHA to form the archive name.
const KeySuffix = "-file_sizes"

// Sentinel errors returned by stores.
var (
	ErrNotFound      = errors.New("snapshot not found")
	ErrExpired       = errors.New("snapshot archive expired")
	ErrAlreadyExists = errors.New("snapshot already stored")
	ErrEmptySHA      = errors.New("commit SHA is empty")
	ErrInvalid       = errors.New("invalid snapshot archive")
)

// Store saves and loads snapshots.
type Store interface {
	// Save stores snap under sha.
	Save(ctx context.Context, sha string, snap snapshot.Snapshot) error
	// Load returns the snapshot stored under sha.
	Load(ctx context.Context, sha string) (snapshot.Snapshot, error)
}

// Key returns the archive name for a commit SHA.
func Key(sha string) string {
	return sha + KeySuffix
}

// LoadOrEmpty loads the snapshot for sha, treating a missing one as empty.
// Expired archives and other failures are still returned as errors.
func LoadOrEmpty(ctx context.Context, st Store, sha string) (snapshot.Snapshot, error) {
	snap, err := st.Load(ctx, sha)
	if errors.Is(err, ErrNotFound) {
		return snapshot.Snapshot{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", sha, err)
	}

	return snap, nil
}

// LoadPair loads the base and head snapshots of a comparison with LoadOrEmpty.
func LoadPair(ctx context.Context, st Store, baseSHA, headSHA string) (base, head snapshot.Snapshot, err error) {
	base, err = LoadOrEmpty(ctx, st, baseSHA)
	if err != nil {
		return nil, nil, err
	}

	head, err = LoadOrEmpty(ctx, st, headSHA)
	if err != nil {
		return nil, nil, err
	}

	return base, head, nil
}

func checkSHA(sha string) error {
	if sha == "" {
		return ErrEmptySHA
	}

	return nil
}

// persistable returns the value written for snap, never a JSON null.
func persistable(snap snapshot.Snapshot) snapshot.Snapshot {
	if snap == nil {
		return snapshot.Snapshot{}
	}

	return snap
}
