// Package keys derives correlation keys that match the same logical build
// artifact across commits even when its file name carries a content hash.
package keys

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

// Sentinel pattern errors.
var (
	ErrEmptyPattern    = errors.New("key pattern is empty")
	ErrInvalidPattern  = errors.New("key pattern is not a valid regular expression")
	ErrNoCaptureGroups = errors.New("key pattern has no capture groups")
)

// Pattern is a validated key pattern. The key of a path is the concatenation of
// every capture group of the first match.
type Pattern struct {
	re     *regexp.Regexp
	source string
}

// Compile validates the pattern and returns a ready-to-use value.
func Compile(pattern string) (*Pattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, ErrEmptyPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
	}

	if re.NumSubexp() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoCaptureGroups, pattern)
	}

	return &Pattern{re: re, source: pattern}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}

	return p
}

// String returns the source pattern.
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}

	return p.source
}

// Extract derives the key for a path. Unmatched optional groups contribute nothing.
func (p *Pattern) Extract(path string) (string, bool) {
	if p == nil {
		return "", false
	}

	groups := p.re.FindStringSubmatch(path)
	if groups == nil {
		return "", false
	}

	return strings.Join(groups[1:], ""), true
}

// Annotate returns a copy of the snapshot with every record's key derived from
// its full path, falling back to its name when the full path is unknown.
// A nil pattern clears all keys.
func (p *Pattern) Annotate(snap snapshot.Snapshot) snapshot.Snapshot {
	out := snap.Clone()

	for i, rec := range out {
		path := rec.Full
		if path == "" {
			path = rec.Name
		}

		key, ok := p.Extract(path)
		if !ok {
			out[i] = rec.WithoutKey()

			continue
		}

		out[i] = rec.WithKey(key)
	}

	return out
}
