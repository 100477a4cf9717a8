// Package recompute holds the write-only-on-change discipline shared by every cost aggregator,
// the bounded history helpers and the ordered recompute queue.
package recompute

import (
	"bytes"
	"encoding/json"
)

// Changed reports whether next differs structurally from prev. Values are compared through their
// canonical JSON form, so map ordering and slice identity never count as a change.
// Values that cannot be encoded are always treated as changed.
func Changed(prev, next any) bool {
	a, err := json.Marshal(prev)
	if err != nil {
		return true
	}
	b, err := json.Marshal(next)
	if err != nil {
		return true
	}
	return !bytes.Equal(a, b)
}

// Apply stores next through write only when it differs from prev.
// It reports whether write was called.
func Apply[T any](prev, next T, write func(T)) bool {
	if !Changed(prev, next) {
		return false
	}
	write(next)
	return true
}

// PushBounded prepends entry to a newest-first history and drops entries beyond limit.
// The input slice is never modified. A non-positive limit keeps only the new entry.
func PushBounded[T any](history []T, entry T, limit int) []T {
	if limit <= 0 {
		limit = 1
	}
	size := min(len(history)+1, limit)
	out := make([]T, 0, size)
	out = append(out, entry)
	out = append(out, history[:size-1]...)
	return out
}

// AppendBounded appends entry to an oldest-first series and drops the oldest entries beyond limit.
// The input slice is never modified.
func AppendBounded[T any](series []T, entry T, limit int) []T {
	if limit <= 0 {
		limit = 1
	}
	out := make([]T, 0, len(series)+1)
	out = append(out, series...)
	out = append(out, entry)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
