package store

import "testing"

func mkActions(ids ...string) []PhotoAction {
	actions := make([]PhotoAction, len(ids))
	for i, id := range ids {
		actions[i] = PhotoAction{PhotoID: id, ActionType: ActionDelete}
	}
	return actions
}

func TestSplitNewActions(t *testing.T) {
	tests := []struct {
		name           string
		prior          []PhotoAction
		incoming       []PhotoAction
		wantFresh      []string
		wantDuplicates int
	}{
		{
			name:           "all new",
			prior:          nil,
			incoming:       mkActions("a", "b"),
			wantFresh:      []string{"a", "b"},
			wantDuplicates: 0,
		},
		{
			name:           "all already on record",
			prior:          mkActions("a", "b"),
			incoming:       mkActions("a", "b"),
			wantFresh:      []string{},
			wantDuplicates: 2,
		},
		{
			name:           "mixed",
			prior:          mkActions("a"),
			incoming:       mkActions("a", "b", "c"),
			wantFresh:      []string{"b", "c"},
			wantDuplicates: 1,
		},
		{
			name:           "duplicate within upload collapses to first",
			prior:          nil,
			incoming:       mkActions("a", "a", "b"),
			wantFresh:      []string{"a", "b"},
			wantDuplicates: 1,
		},
		{
			name:           "empty upload",
			prior:          mkActions("a"),
			incoming:       nil,
			wantFresh:      []string{},
			wantDuplicates: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh, duplicates := SplitNewActions(tt.prior, tt.incoming)
			if duplicates != tt.wantDuplicates {
				t.Errorf("duplicates = %d, want %d", duplicates, tt.wantDuplicates)
			}
			if len(fresh) != len(tt.wantFresh) {
				t.Fatalf("fresh has %d actions, want %d", len(fresh), len(tt.wantFresh))
			}
			for i, want := range tt.wantFresh {
				if fresh[i].PhotoID != want {
					t.Errorf("fresh[%d].PhotoID = %q, want %q", i, fresh[i].PhotoID, want)
				}
			}
		})
	}
}

func TestSplitNewActionsKeepsFirstOccurrence(t *testing.T) {
	incoming := []PhotoAction{
		{PhotoID: "a", ActionType: ActionKeep},
		{PhotoID: "a", ActionType: ActionDelete},
	}

	fresh, _ := SplitNewActions(nil, incoming)
	if len(fresh) != 1 {
		t.Fatalf("fresh has %d actions, want 1", len(fresh))
	}
	if fresh[0].ActionType != ActionKeep {
		t.Errorf("kept action type = %d, want first occurrence %d", fresh[0].ActionType, ActionKeep)
	}
}
