// Package safeconv converts between the unsigned byte counts stored in
// snapshots and the signed values used for deltas and instruments.
package safeconv

import "math"

// MaxInt64 as an unsigned value.
const maxInt64 = uint64(math.MaxInt64)

// MustInt64ToUint64 converts int64 to uint64, panics if negative.
// Use only when negative values are logically impossible, such as file sizes.
func MustInt64ToUint64(v int64) uint64 {
	if v < 0 {
		panic("safeconv: negative int64 to uint64 conversion")
	}

	return uint64(v)
}

// Uint64ToInt64 converts v, saturating at math.MaxInt64.
func Uint64ToInt64(v uint64) int64 {
	if v > maxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}

// Delta is to minus from as a signed value, saturating at the int64 bounds.
func Delta(from, to uint64) int64 {
	if to >= from {
		return Uint64ToInt64(to - from)
	}

	return -Uint64ToInt64(from - to)
}

// Magnitude is the absolute value of v as uint64. It is exact for math.MinInt64.
func Magnitude(v int64) uint64 {
	if v >= 0 {
		return uint64(v)
	}

	return uint64(-(v + 1)) + 1
}
