// Package snapshot defines the sized file records captured for a single commit.
package snapshot

import (
	"errors"
	"fmt"
)

// ErrDuplicateName is returned when two records of one snapshot share a name.
var ErrDuplicateName = errors.New("duplicate file name in snapshot")

// FileRecord is one measured build artifact. The JSON field names are the
// persisted contract shared with every snapshot store and must not change.
type FileRecord struct {
	// Name is the slash-separated path relative to the measured root.
	Name string `json:"name" yaml:"name"`

	// Relative is the OS-native path relative to the measured root.
	Relative string `json:"relative" yaml:"relative"`

	// Full is the absolute path at measurement time.
	Full string `json:"full" yaml:"full"`

	// Key is the derived correlation key. Nil when no key could be derived.
	// It is recomputed after loading and never persisted.
	Key *string `json:"-" yaml:"-"`

	// Size is the raw size in bytes.
	Size uint64 `json:"size" yaml:"size"`

	// CompressedSize is the exact gzip output size in bytes.
	CompressedSize uint64 `json:"gzip" yaml:"gzip"`
}

// KeyValue returns the correlation key and whether the record has one.
func (r FileRecord) KeyValue() (string, bool) {
	if r.Key == nil {
		return "", false
	}

	return *r.Key, true
}

// WithKey returns a copy of the record carrying the given key.
func (r FileRecord) WithKey(key string) FileRecord {
	r.Key = &key

	return r
}

// WithoutKey returns a copy of the record with no key.
func (r FileRecord) WithoutKey() FileRecord {
	r.Key = nil

	return r
}

// Sizes returns the record's sizes as an aggregate of one.
func (r FileRecord) Sizes() AggregateSize {
	return AggregateSize{Size: r.Size, CompressedSize: r.CompressedSize}
}

// AggregateSize is a raw and compressed byte total.
type AggregateSize struct {
	Size           uint64 `json:"size" yaml:"size"`
	CompressedSize uint64 `json:"gzip" yaml:"gzip"`
}

// Add returns the sum of both aggregates.
func (a AggregateSize) Add(other AggregateSize) AggregateSize {
	return AggregateSize{
		Size:           a.Size + other.Size,
		CompressedSize: a.CompressedSize + other.CompressedSize,
	}
}

// Snapshot is the set of sized files captured for one commit. Order carries no
// meaning for correctness but is preserved so output stays deterministic.
type Snapshot []FileRecord

// Total sums the sizes of every record.
func (s Snapshot) Total() AggregateSize {
	var total AggregateSize

	for _, rec := range s {
		total = total.Add(rec.Sizes())
	}

	return total
}

// Validate checks that no two records share a name.
func (s Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s))

	for _, rec := range s {
		if _, ok := seen[rec.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateName, rec.Name)
		}

		seen[rec.Name] = struct{}{}
	}

	return nil
}

// Clone returns a shallow copy that can be annotated without touching the original.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}

	out := make(Snapshot, len(s))
	copy(out, s)

	return out
}
