// Package triage implements the Blitz Mode session engine: burst groups
// of capture items walked with four-way decisions (keep, delete,
// favorite, defer), a bounded favorites bucket, one-level undo, and a
// review pass over deferred groups. The engine is pure in-memory state;
// energy accounting and outcome persistence are collaborators supplied
// by the caller.
package triage

import (
	"fmt"

	"github.com/cozyclean/blitz/internal/burst"
)

// CaptureItem is an opaque reference to one photo asset. The engine
// never mutates items; it only carries their identifiers into outcome
// buckets.
type CaptureItem struct {
	// ID uniquely identifies the asset. The app keys photos by content
	// MD5, but the engine treats IDs as opaque strings.
	ID string

	// TimestampMs is the capture instant in Unix milliseconds.
	TimestampMs int64

	// SizeBytes is the asset size on disk, used for reclaim summaries.
	SizeBytes int64

	// Preview is a handle the presentation layer resolves to a
	// low-resolution preview: a file path locally, an object key in the
	// cloud. Opaque here.
	Preview string
}

// Group is an ordered, non-empty run of capture items judged to belong
// to the same burst. Groups are immutable once built; a fresh load
// produces fresh groups.
type Group struct {
	items     []CaptureItem
	bestIndex int
}

// NewGroup builds a group over items ordered by timestamp ascending.
// The best index starts at 0.
func NewGroup(items []CaptureItem) (Group, error) {
	if len(items) == 0 {
		return Group{}, fmt.Errorf("group must not be empty")
	}
	own := make([]CaptureItem, len(items))
	copy(own, items)
	return Group{items: own}, nil
}

// Len reports the number of members.
func (g Group) Len() int { return len(g.items) }

// Item returns the member at index i.
func (g Group) Item(i int) CaptureItem { return g.items[i] }

// Items returns a copy of the members.
func (g Group) Items() []CaptureItem {
	out := make([]CaptureItem, len(g.items))
	copy(out, g.items)
	return out
}

// BestIndex reports the designated best member, 0 unless reassigned
// via WithBest.
func (g Group) BestIndex() int { return g.bestIndex }

// Best returns the designated best member.
func (g Group) Best() CaptureItem { return g.items[g.bestIndex] }

// IsBurst reports whether the group holds more than one member.
func (g Group) IsBurst() bool { return len(g.items) > 1 }

// SizeBytes sums the members' sizes.
func (g Group) SizeBytes() int64 {
	var n int64
	for _, it := range g.items {
		n += it.SizeBytes
	}
	return n
}

// WithBest returns a copy of the group with a new best index. The
// original group is untouched.
func (g Group) WithBest(i int) (Group, error) {
	if i < 0 || i >= len(g.items) {
		return Group{}, fmt.Errorf("best index %d out of range [0,%d)", i, len(g.items))
	}
	out := g
	out.bestIndex = i
	return out, nil
}

// BuildGroups maps classifier boundaries back onto the item sequence
// the timestamps were taken from. The boundaries must come from
// burst.Boundaries (or an equivalent classifier) run over the items'
// timestamps in this exact order.
func BuildGroups(items []CaptureItem, boundaries []int) ([]Group, error) {
	if len(items) == 0 {
		if len(boundaries) != 0 {
			return nil, fmt.Errorf("no items but %d boundaries", len(boundaries))
		}
		return nil, nil
	}

	if len(boundaries) < 2 {
		return nil, fmt.Errorf("need at least 2 boundaries for %d items, got %d", len(items), len(boundaries))
	}
	if boundaries[0] != 0 {
		return nil, fmt.Errorf("first boundary must be 0, got %d", boundaries[0])
	}
	if last := boundaries[len(boundaries)-1]; last != len(items) {
		return nil, fmt.Errorf("last boundary must be %d, got %d", len(items), last)
	}

	groups := make([]Group, 0, len(boundaries)-1)
	for i := 1; i < len(boundaries); i++ {
		lo, hi := boundaries[i-1], boundaries[i]
		if hi <= lo {
			return nil, fmt.Errorf("boundaries not strictly increasing at index %d: %d..%d", i, lo, hi)
		}
		g, err := NewGroup(items[lo:hi])
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// GroupItems runs the classifier contract end to end for callers that
// hold sorted items: extract timestamps, classify, rebuild groups.
func GroupItems(items []CaptureItem, thresholdMs int64) ([]Group, error) {
	ts := Timestamps(items)
	return BuildGroups(items, burst.Boundaries(ts, thresholdMs))
}

// Timestamps extracts the capture timestamps in item order, the only
// data that crosses into the classifier.
func Timestamps(items []CaptureItem) []int64 {
	ts := make([]int64, len(items))
	for i, it := range items {
		ts[i] = it.TimestampMs
	}
	return ts
}
