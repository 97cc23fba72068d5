// Package convert provides safe integer conversion utilities for ledger
// timestamps, pool sizes and retry counters.
package convert

import (
	"fmt"
	"math"
)

// IntToInt32Clamped converts an int to int32, clamping to min/max bounds if overflow.
// Use this when truncation is acceptable behavior (e.g., pool sizes, counters).
func IntToInt32Clamped(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// IntToUintSafe safely converts an int to uint, panicking if negative.
func IntToUintSafe(v int) uint {
	if v < 0 {
		panic(fmt.Sprintf("cannot convert negative int to uint: %d", v))
	}
	return uint(v)
}

// Uint64ToInt64Clamped converts ledger seconds to int64, clamping at MaxInt64.
func Uint64ToInt64Clamped(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// Int64ToUint64Clamped converts a stored int64 to ledger seconds, clamping negatives to 0.
func Int64ToUint64Clamped(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// SaturatingAddUint64 adds two ledger values without wrapping past MaxUint64.
func SaturatingAddUint64(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
