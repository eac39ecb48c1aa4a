package triage

import (
	"reflect"
	"testing"

	"github.com/cozyclean/blitz/internal/burst"
)

func testItems(ts ...int64) []CaptureItem {
	items := make([]CaptureItem, len(ts))
	for i, t := range ts {
		items[i] = CaptureItem{
			ID:          string(rune('a' + i)),
			TimestampMs: t,
			SizeBytes:   100,
		}
	}
	return items
}

func TestBuildGroups(t *testing.T) {
	items := testItems(0, 200, 1800, 2000)
	bounds := burst.Boundaries(Timestamps(items), 1500)

	groups, err := BuildGroups(items, bounds)
	if err != nil {
		t.Fatalf("BuildGroups returned error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Len() != 2 || groups[1].Len() != 2 {
		t.Errorf("group sizes = %d,%d, want 2,2", groups[0].Len(), groups[1].Len())
	}
	if !groups[0].IsBurst() {
		t.Error("group of 2 should report IsBurst")
	}
	if groups[0].Item(0).ID != "a" || groups[1].Item(0).ID != "c" {
		t.Errorf("group members misaligned: %v / %v", groups[0].Items(), groups[1].Items())
	}

	// Every item lands in exactly one group.
	seen := map[string]int{}
	total := 0
	for _, g := range groups {
		for _, it := range g.Items() {
			seen[it.ID]++
			total++
		}
	}
	if total != len(items) {
		t.Errorf("groups hold %d items, want %d", total, len(items))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("item %s appears in %d groups", id, n)
		}
	}
}

func TestBuildGroups_Empty(t *testing.T) {
	groups, err := BuildGroups(nil, nil)
	if err != nil {
		t.Fatalf("BuildGroups(nil, nil) returned error: %v", err)
	}
	if groups != nil {
		t.Errorf("got %v, want nil", groups)
	}
}

func TestBuildGroups_BadBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		items  []CaptureItem
		bounds []int
	}{
		{"missing sentinel", testItems(0, 100, 200), []int{0, 2}},
		{"missing leading zero", testItems(0, 100, 200), []int{1, 3}},
		{"not increasing", testItems(0, 100, 200), []int{0, 2, 2, 3}},
		{"too few", testItems(0, 100, 200), []int{0}},
		{"boundaries without items", nil, []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildGroups(tt.items, tt.bounds); err == nil {
				t.Errorf("BuildGroups(%v) succeeded, want error", tt.bounds)
			}
		})
	}
}

func TestGroupItems_SingleItem(t *testing.T) {
	groups, err := GroupItems(testItems(500), 1500)
	if err != nil {
		t.Fatalf("GroupItems returned error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Len() != 1 || groups[0].IsBurst() {
		t.Errorf("single item should form one non-burst singleton, got len=%d burst=%v",
			groups[0].Len(), groups[0].IsBurst())
	}
}

func TestNewGroup_Empty(t *testing.T) {
	if _, err := NewGroup(nil); err == nil {
		t.Error("NewGroup(nil) succeeded, want error")
	}
}

func TestGroup_WithBest(t *testing.T) {
	g, err := NewGroup(testItems(0, 10, 20))
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	if g.BestIndex() != 0 {
		t.Errorf("default best index = %d, want 0", g.BestIndex())
	}

	g2, err := g.WithBest(2)
	if err != nil {
		t.Fatalf("WithBest(2): %v", err)
	}
	if g2.BestIndex() != 2 || g2.Best().ID != "c" {
		t.Errorf("WithBest(2) best = %d/%s, want 2/c", g2.BestIndex(), g2.Best().ID)
	}
	if g.BestIndex() != 0 {
		t.Error("WithBest mutated the original group")
	}

	if _, err := g.WithBest(3); err == nil {
		t.Error("WithBest(3) on a 3-item group succeeded, want error")
	}
	if _, err := g.WithBest(-1); err == nil {
		t.Error("WithBest(-1) succeeded, want error")
	}
}

func TestGroup_ItemsIsCopy(t *testing.T) {
	g, _ := NewGroup(testItems(0, 10))
	items := g.Items()
	items[0].ID = "mutated"
	if g.Item(0).ID == "mutated" {
		t.Error("mutating the Items copy leaked into the group")
	}
}

func TestGroup_SizeBytes(t *testing.T) {
	g, _ := NewGroup(testItems(0, 10, 20))
	if got := g.SizeBytes(); got != 300 {
		t.Errorf("SizeBytes = %d, want 300", got)
	}
}

func TestTimestamps(t *testing.T) {
	items := testItems(5, 6, 7)
	if got := Timestamps(items); !reflect.DeepEqual(got, []int64{5, 6, 7}) {
		t.Errorf("Timestamps = %v, want [5 6 7]", got)
	}
}
