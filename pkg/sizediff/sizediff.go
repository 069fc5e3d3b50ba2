// Package sizediff reconciles the snapshots of two commits into a list of
// per-file size changes headed by an aggregate total.
package sizediff

import (
	"github.com/samber/lo"

	"github.com/Sumatoshi-tech/bundlesize/pkg/keys"
	"github.com/Sumatoshi-tech/bundlesize/pkg/safeconv"
	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

// TotalLabel is the label of the aggregate row.
const TotalLabel = "Total"

// percentScale converts a ratio to a percentage.
const percentScale = 100

// ChangeRow is one line of a report: the total, or one correlated file pair.
// A nil Base means the file is new; a nil Head means it was removed.
type ChangeRow struct {
	Label string                  `json:"label" yaml:"label"`
	Total bool                    `json:"total,omitempty" yaml:"total,omitempty"`
	Base  *snapshot.AggregateSize `json:"base" yaml:"base"`
	Head  *snapshot.AggregateSize `json:"head" yaml:"head"`
}

// BaseSize returns the base side, zero when absent.
func (r ChangeRow) BaseSize() snapshot.AggregateSize {
	return lo.FromPtr(r.Base)
}

// HeadSize returns the head side, zero when absent.
func (r ChangeRow) HeadSize() snapshot.AggregateSize {
	return lo.FromPtr(r.Head)
}

// Added reports whether the row only exists in head.
func (r ChangeRow) Added() bool {
	return r.Base == nil && r.Head != nil
}

// Removed reports whether the row only exists in base.
func (r ChangeRow) Removed() bool {
	return r.Head == nil && r.Base != nil
}

// Delta is the signed raw byte change.
func (r ChangeRow) Delta() int64 {
	return signedDelta(r.BaseSize().Size, r.HeadSize().Size)
}

// CompressedDelta is the signed compressed byte change.
func (r ChangeRow) CompressedDelta() int64 {
	return signedDelta(r.BaseSize().CompressedSize, r.HeadSize().CompressedSize)
}

// Percentage is the signed raw size change in percent. New files count as
// +100 and removed files as -100.
func (r ChangeRow) Percentage() float64 {
	return r.percentage(r.BaseSize().Size, r.HeadSize().Size)
}

// CompressedPercentage is the signed compressed size change in percent.
func (r ChangeRow) CompressedPercentage() float64 {
	return r.percentage(r.BaseSize().CompressedSize, r.HeadSize().CompressedSize)
}

func (r ChangeRow) percentage(base, head uint64) float64 {
	switch {
	case r.Added():
		return percentScale
	case r.Removed():
		return -percentScale
	default:
		return DifferencePercentage(base, head)
	}
}

// Report is the ordered change set: the total row first, then changed files
// in first-seen order across base then head.
type Report struct {
	Rows []ChangeRow `json:"rows" yaml:"rows"`
}

// Total returns the aggregate row.
func (r Report) Total() ChangeRow {
	if len(r.Rows) == 0 {
		return ChangeRow{Label: TotalLabel, Total: true, Base: &snapshot.AggregateSize{}, Head: &snapshot.AggregateSize{}}
	}

	return r.Rows[0]
}

// Files returns the per-file rows.
func (r Report) Files() []ChangeRow {
	if len(r.Rows) <= 1 {
		return nil
	}

	return r.Rows[1:]
}

// Summary counts the kinds of per-file changes.
type Summary struct {
	Added   int `json:"added" yaml:"added"`
	Removed int `json:"removed" yaml:"removed"`
	Grown   int `json:"grown" yaml:"grown"`
	Shrunk  int `json:"shrunk" yaml:"shrunk"`
}

// Summary classifies every per-file row.
func (r Report) Summary() Summary {
	var s Summary

	for _, row := range r.Files() {
		switch {
		case row.Added():
			s.Added++
		case row.Removed():
			s.Removed++
		case row.Delta() > 0:
			s.Grown++
		default:
			s.Shrunk++
		}
	}

	return s
}

// groupKey identifies a correlation group. Unkeyed records form singleton
// groups by name and never collide with a keyed group of the same text.
type groupKey struct {
	keyed bool
	value string
}

type pair struct {
	base *snapshot.FileRecord
	head *snapshot.FileRecord
}

// DiffKeyed derives keys for both snapshots with pattern, then diffs them.
// Keys already present on the records are replaced.
func DiffKeyed(pattern *keys.Pattern, base, head snapshot.Snapshot) Report {
	return Diff(pattern.Annotate(base), pattern.Annotate(head))
}

// Diff reconciles base and head. Records are matched by correlation key; a
// record without a key is matched only by its exact name. When several
// records of one snapshot share a key, the first keeps it and the others fall
// back to matching by name. Rows whose raw size is unchanged are dropped,
// except the total which is always first.
func Diff(base, head snapshot.Snapshot) Report {
	baseTotal := base.Total()
	headTotal := head.Total()

	rows := []ChangeRow{{
		Label: TotalLabel,
		Total: true,
		Base:  &baseTotal,
		Head:  &headTotal,
	}}

	var order []groupKey

	pairs := make(map[groupKey]*pair)

	place := func(snap snapshot.Snapshot, side func(*pair) **snapshot.FileRecord) {
		taken := make(map[groupKey]bool, len(snap))

		for i := range snap {
			rec := &snap[i]
			gk := groupOf(rec)

			if taken[gk] && gk.keyed {
				gk = groupKey{value: rec.Name}
			}

			if taken[gk] {
				continue
			}

			taken[gk] = true

			p, ok := pairs[gk]
			if !ok {
				p = &pair{}
				pairs[gk] = p
				order = append(order, gk)
			}

			*side(p) = rec
		}
	}

	place(base, func(p *pair) **snapshot.FileRecord { return &p.base })
	place(head, func(p *pair) **snapshot.FileRecord { return &p.head })

	for _, gk := range order {
		p := pairs[gk]

		if p.base != nil && p.head != nil && p.base.Size == p.head.Size {
			continue
		}

		rows = append(rows, newRow(p))
	}

	return Report{Rows: rows}
}

func groupOf(rec *snapshot.FileRecord) groupKey {
	if key, ok := rec.KeyValue(); ok {
		return groupKey{keyed: true, value: key}
	}

	return groupKey{value: rec.Name}
}

func newRow(p *pair) ChangeRow {
	row := ChangeRow{}

	if p.base != nil {
		row.Label = p.base.Name
		row.Base = lo.ToPtr(p.base.Sizes())
	}

	if p.head != nil {
		row.Label = p.head.Name
		row.Head = lo.ToPtr(p.head.Sizes())
	}

	return row
}

// DifferencePercentage is the signed change from a to b in percent:
// |a-b| / a * sign(b-a) * 100. It is 0 when a is 0, so the result is always finite.
func DifferencePercentage(a, b uint64) float64 {
	if a == 0 || a == b {
		return 0
	}

	if b > a {
		return float64(b-a) / float64(a) * percentScale
	}

	return -float64(a-b) / float64(a) * percentScale
}

func signedDelta(from, to uint64) int64 {
	return safeconv.Delta(from, to)
}
