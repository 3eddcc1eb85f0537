// Package aggregate merges per-source envelope streams and memoises repeated
// lookups within one aggregation call.
package aggregate

import (
	"sort"

	"github.com/noah-isme/gema-activity-api/internal/dto"
)

// Order is the primary direction of a merge.
type Order int

const (
	// Newest puts the latest sort key first.
	Newest Order = iota
	// Soonest puts the earliest sort key first.
	Soonest
)

func (o Order) String() string {
	if o == Soonest {
		return "soonest"
	}
	return "newest"
}

// Merge concatenates the streams in argument order, stable-sorts them by sort
// key in the given order and then by ascending TieBreak, and keeps the first
// limit envelopes. A limit of zero or less keeps everything.
func Merge(order Order, limit int, streams ...[]dto.Envelope) []dto.Envelope {
	total := 0
	for _, stream := range streams {
		total += len(stream)
	}

	merged := make([]dto.Envelope, 0, total)
	for _, stream := range streams {
		merged = append(merged, stream...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		left, right := merged[i], merged[j]
		if !left.SortKey.Equal(right.SortKey) {
			if order == Soonest {
				return left.SortKey.Before(right.SortKey)
			}
			return left.SortKey.After(right.SortKey)
		}
		return left.TieBreak < right.TieBreak
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
