package report

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/bundlesize/pkg/safeconv"
	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
)

// unchangedMark replaces the percentage when nothing changed.
const unchangedMark = "="

// FormatPercentage renders a signed percentage with two decimals, or "=" when
// the value is exactly zero.
func FormatPercentage(pct float64) string {
	if pct == 0 {
		return unchangedMark
	}

	return fmt.Sprintf("%+.2f%%", pct)
}

// FormatBytes renders a byte count in SI units.
func FormatBytes(n uint64) string {
	return humanize.Bytes(n)
}

// FormatDelta renders a signed byte delta such as "+1.2 kB" or "-20 B".
func FormatDelta(delta int64) string {
	switch {
	case delta > 0:
		return "+" + humanize.Bytes(safeconv.Magnitude(delta))
	case delta < 0:
		return "-" + humanize.Bytes(safeconv.Magnitude(delta))
	default:
		return humanize.Bytes(0)
	}
}

// FormatChange renders the "+X.XX% (+N B)" cell.
func FormatChange(pct float64, delta int64) string {
	return fmt.Sprintf("%s (%s)", FormatPercentage(pct), FormatDelta(delta))
}

// cells returns the seven table cells of a row in column order.
func cells(row sizediff.ChangeRow) []string {
	base := row.BaseSize()
	head := row.HeadSize()

	return []string{
		row.Label,
		FormatChange(row.Percentage(), row.Delta()),
		FormatBytes(base.Size),
		FormatBytes(head.Size),
		FormatChange(row.CompressedPercentage(), row.CompressedDelta()),
		FormatBytes(base.CompressedSize),
		FormatBytes(head.CompressedSize),
	}
}
