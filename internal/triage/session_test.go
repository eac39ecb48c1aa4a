package triage

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// singletons builds one single-item group per ID, spaced far apart in
// time.
func singletons(t *testing.T, ids ...string) []Group {
	t.Helper()
	groups := make([]Group, len(ids))
	for i, id := range ids {
		g, err := NewGroup([]CaptureItem{{
			ID:          id,
			TimestampMs: int64(i) * 10_000,
			SizeBytes:   1000,
		}})
		if err != nil {
			t.Fatalf("NewGroup(%s): %v", id, err)
		}
		groups[i] = g
	}
	return groups
}

func newTestSession(t *testing.T, opts Options, ids ...string) *Session {
	t.Helper()
	s, err := NewSession(singletons(t, ids...), opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

type fakeGate struct {
	remaining int64
	consumed  int64
	restored  int64
}

func (g *fakeGate) Remaining() int64 { return g.remaining }
func (g *fakeGate) Consume(n int64)  { g.consumed += n; g.remaining -= n }
func (g *fakeGate) Restore(n int64)  { g.restored += n; g.remaining += n }

func TestSession_EmptyGroupsFinishesImmediately(t *testing.T) {
	s, err := NewSession(nil, Options{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Phase() != PhaseFinished {
		t.Errorf("phase = %v, want finished", s.Phase())
	}
	out, ok := s.Outcome()
	if !ok {
		t.Fatal("Outcome not available for finished empty session")
	}
	if len(out.Kept) != 0 || len(out.Deleted) != 0 || len(out.Favorited) != 0 {
		t.Errorf("empty session produced non-empty outcome: %+v", out)
	}
}

func TestSession_PrimaryPassToFinished(t *testing.T) {
	s := newTestSession(t, Options{}, "g0", "g1", "g2")

	if err := s.DecideRight("g0"); err != nil {
		t.Fatalf("DecideRight(g0): %v", err)
	}
	if err := s.DecideLeft("g1"); err != nil {
		t.Fatalf("DecideLeft(g1): %v", err)
	}
	if err := s.DecideUp("g2"); err != nil {
		t.Fatalf("DecideUp(g2): %v", err)
	}

	if s.Phase() != PhaseFinished {
		t.Fatalf("phase = %v, want finished", s.Phase())
	}
	out, ok := s.Outcome()
	if !ok {
		t.Fatal("Outcome not available after finish")
	}
	want := Outcome{Kept: []string{"g0"}, Deleted: []string{"g1"}, Favorited: []string{"g2"}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("outcome = %+v, want %+v", out, want)
	}

	if err := s.DecideRight("g0"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("decide after finish = %v, want ErrInvalidTransition", err)
	}
}

func TestSession_FavoritesCap(t *testing.T) {
	s := newTestSession(t, Options{FavoritesCap: 1}, "g0", "g1", "g2")

	if err := s.DecideUp("g0"); err != nil {
		t.Fatalf("DecideUp(g0): %v", err)
	}
	if got := s.Favorited(); !reflect.DeepEqual(got, []string{"g0"}) {
		t.Fatalf("favorited = %v, want [g0]", got)
	}

	err := s.DecideUp("g1")
	if !errors.Is(err, ErrFavoritesFull) {
		t.Fatalf("DecideUp(g1) = %v, want ErrFavoritesFull", err)
	}
	if got := s.Favorited(); !reflect.DeepEqual(got, []string{"g0"}) {
		t.Errorf("favorited after rejection = %v, want [g0]", got)
	}
	if s.Cursor() != 1 {
		t.Errorf("cursor after rejection = %d, want 1", s.Cursor())
	}

	// The group can still go elsewhere.
	if err := s.DecideRight("g1"); err != nil {
		t.Errorf("DecideRight(g1) after cap rejection: %v", err)
	}
}

func TestSession_UndoRestoresExactState(t *testing.T) {
	s := newTestSession(t, Options{}, "g0", "g1")

	type snapshot struct {
		cursor    int
		kept      []string
		deleted   []string
		favorited []string
		deferred  []string
		canUndo   bool
	}
	take := func() snapshot {
		return snapshot{
			cursor:    s.Cursor(),
			kept:      s.Kept(),
			deleted:   s.Deleted(),
			favorited: s.Favorited(),
			deferred:  s.Deferred(),
			canUndo:   s.CanUndo(),
		}
	}

	decisions := []struct {
		name   string
		decide func(string) error
	}{
		{"delete", s.DecideLeft},
		{"keep", s.DecideRight},
		{"favorite", s.DecideUp},
		{"defer", s.DecideDown},
	}

	for _, d := range decisions {
		before := take()
		if err := d.decide("g0"); err != nil {
			t.Fatalf("%s(g0): %v", d.name, err)
		}
		if err := s.Undo(); err != nil {
			t.Fatalf("Undo after %s: %v", d.name, err)
		}
		after := take()
		// CanUndo was false before the first decision and is false
		// again after undo clears the buffer.
		if !reflect.DeepEqual(before, after) {
			t.Errorf("%s: state after undo = %+v, want %+v", d.name, after, before)
		}
	}
}

func TestSession_UndoScenario(t *testing.T) {
	s := newTestSession(t, Options{}, "g0", "g1")

	if err := s.DecideLeft("g0"); err != nil {
		t.Fatalf("DecideLeft(g0): %v", err)
	}
	if got := s.Deleted(); !reflect.DeepEqual(got, []string{"g0"}) || s.Cursor() != 1 {
		t.Fatalf("after delete: deleted=%v cursor=%d, want [g0] 1", got, s.Cursor())
	}

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := s.Deleted(); len(got) != 0 || s.Cursor() != 0 {
		t.Fatalf("after undo: deleted=%v cursor=%d, want [] 0", got, s.Cursor())
	}

	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("second Undo = %v, want ErrNothingToUndo", err)
	}
}

func TestSession_DeferredReviewFlow(t *testing.T) {
	s := newTestSession(t, Options{}, "g0")

	if err := s.DecideDown("g0"); err != nil {
		t.Fatalf("DecideDown(g0): %v", err)
	}
	if s.Phase() != PhaseReviewingDeferred {
		t.Fatalf("phase = %v, want reviewing-deferred", s.Phase())
	}
	if got := s.Deferred(); !reflect.DeepEqual(got, []string{"g0"}) {
		t.Fatalf("deferred = %v, want [g0]", got)
	}
	if s.ReviewCursor() != 0 {
		t.Fatalf("review cursor = %d, want 0", s.ReviewCursor())
	}

	it, ok := s.CurrentReview()
	if !ok || it.ID != "g0" {
		t.Fatalf("CurrentReview = %v/%v, want g0/true", it.ID, ok)
	}

	if err := s.DecideRight("g0"); err != nil {
		t.Fatalf("review DecideRight(g0): %v", err)
	}
	if s.Phase() != PhaseFinished {
		t.Fatalf("phase = %v, want finished", s.Phase())
	}
	out, ok := s.Outcome()
	if !ok || !reflect.DeepEqual(out.Kept, []string{"g0"}) {
		t.Errorf("outcome = %+v/%v, want kept=[g0]", out, ok)
	}
}

func TestSession_ReviewRejectsDefer(t *testing.T) {
	s := newTestSession(t, Options{}, "g0", "g1")

	if err := s.DecideDown("g0"); err != nil {
		t.Fatalf("DecideDown(g0): %v", err)
	}
	if err := s.DecideRight("g1"); err != nil {
		t.Fatalf("DecideRight(g1): %v", err)
	}
	if s.Phase() != PhaseReviewingDeferred {
		t.Fatalf("phase = %v, want reviewing-deferred", s.Phase())
	}

	if err := s.DecideDown("g0"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("defer during review = %v, want ErrInvalidTransition", err)
	}
	if got := s.Deferred(); !reflect.DeepEqual(got, []string{"g0"}) {
		t.Errorf("deferred after rejected defer = %v, want [g0]", got)
	}
}

func TestSession_ReviewUndo(t *testing.T) {
	s := newTestSession(t, Options{}, "g0", "g1")

	s.DecideDown("g0")
	s.DecideDown("g1")
	if s.Phase() != PhaseReviewingDeferred {
		t.Fatalf("phase = %v, want reviewing-deferred", s.Phase())
	}

	// Buffer does not cross the phase boundary.
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("undo across phase boundary = %v, want ErrNothingToUndo", err)
	}

	if err := s.DecideLeft("g0"); err != nil {
		t.Fatalf("review DecideLeft(g0): %v", err)
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("review undo: %v", err)
	}
	if s.ReviewCursor() != 0 {
		t.Errorf("review cursor after undo = %d, want 0", s.ReviewCursor())
	}
	if got := s.Deleted(); len(got) != 0 {
		t.Errorf("deleted after review undo = %v, want empty", got)
	}
	// g0 is under review again.
	it, ok := s.CurrentReview()
	if !ok || it.ID != "g0" {
		t.Errorf("CurrentReview after undo = %v/%v, want g0/true", it.ID, ok)
	}
}

func TestSession_BucketDisjointness(t *testing.T) {
	s := newTestSession(t, Options{}, "g0", "g1", "g2", "g3", "g4", "g5")

	steps := []func(string) error{
		s.DecideRight, s.DecideLeft, s.DecideUp, s.DecideDown, s.DecideRight, s.DecideDown,
	}
	for i, step := range steps {
		id := fmt.Sprintf("g%d", i)
		if err := step(id); err != nil {
			t.Fatalf("step %d (%s): %v", i, id, err)
		}

		seen := map[string]int{}
		for _, id := range s.Kept() {
			seen[id]++
		}
		for _, id := range s.Deleted() {
			seen[id]++
		}
		for _, id := range s.Favorited() {
			seen[id]++
		}
		for _, id := range s.Deferred() {
			seen[id]++
		}
		for id, n := range seen {
			if n > 1 {
				t.Fatalf("after step %d: item %s sits in %d buckets", i, id, n)
			}
		}
	}
}

func TestSession_QuotaGateBlocks(t *testing.T) {
	gate := &fakeGate{remaining: 0}
	s := newTestSession(t, Options{Gate: gate}, "g0")

	err := s.DecideRight("g0")
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("DecideRight with empty gate = %v, want ErrQuotaExhausted", err)
	}
	if s.Cursor() != 0 || len(s.Kept()) != 0 {
		t.Errorf("rejected decision mutated state: cursor=%d kept=%v", s.Cursor(), s.Kept())
	}
	if gate.consumed != 0 {
		t.Errorf("gate consumed %d on a rejected decision, want 0", gate.consumed)
	}

	// Refill and retry.
	gate.remaining = 5
	if err := s.DecideRight("g0"); err != nil {
		t.Fatalf("DecideRight after refill: %v", err)
	}
	if gate.consumed != 1 {
		t.Errorf("gate consumed %d, want 1", gate.consumed)
	}
}

func TestSession_QuotaAccounting(t *testing.T) {
	gate := &fakeGate{remaining: 100}
	s := newTestSession(t, Options{Gate: gate, DecisionCost: 2}, "g0", "g1")

	s.DecideRight("g0")
	if gate.consumed != 2 {
		t.Errorf("consumed = %d, want 2", gate.consumed)
	}

	s.Undo()
	if gate.restored != 2 {
		t.Errorf("restored = %d, want 2", gate.restored)
	}
	if gate.remaining != 100 {
		t.Errorf("remaining after undo = %d, want 100", gate.remaining)
	}
}

func TestSession_QuotaGateAppliesDuringReview(t *testing.T) {
	gate := &fakeGate{remaining: 2}
	s := newTestSession(t, Options{Gate: gate}, "g0", "g1")

	s.DecideDown("g0")
	s.DecideDown("g1")
	if s.Phase() != PhaseReviewingDeferred {
		t.Fatalf("phase = %v, want reviewing-deferred", s.Phase())
	}

	// Energy spent in the primary pass; review decisions stay gated.
	if err := s.DecideRight("g0"); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("review decide with empty gate = %v, want ErrQuotaExhausted", err)
	}
	if s.ReviewCursor() != 0 {
		t.Errorf("review cursor moved on rejected decision: %d", s.ReviewCursor())
	}
}

func TestSession_WrongItemRejected(t *testing.T) {
	s := newTestSession(t, Options{}, "g0", "g1")

	if err := s.DecideRight("g1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("deciding g1 under cursor 0 = %v, want ErrInvalidTransition", err)
	}
	if err := s.DecideRight("nope"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("deciding unknown item = %v, want ErrInvalidTransition", err)
	}
	if s.Cursor() != 0 {
		t.Errorf("cursor moved on rejected decisions: %d", s.Cursor())
	}
}

func TestSession_Discard(t *testing.T) {
	s := newTestSession(t, Options{}, "g0", "g1")

	s.DecideLeft("g0")
	if err := s.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if !s.Discarded() {
		t.Error("Discarded() = false after Discard")
	}
	if _, ok := s.Outcome(); ok {
		t.Error("discarded session produced an outcome")
	}
	if err := s.DecideRight("g1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("decide after discard = %v, want ErrInvalidTransition", err)
	}
	if err := s.Discard(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Discard = %v, want ErrInvalidTransition", err)
	}
}

func TestSession_DiscardAfterFinishRejected(t *testing.T) {
	s := newTestSession(t, Options{}, "g0")
	s.DecideRight("g0")
	if err := s.Discard(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Discard after finish = %v, want ErrInvalidTransition", err)
	}
}

func TestSession_TerminationWithBursts(t *testing.T) {
	// Mixed group sizes; decide everything, defer some, resolve review.
	items := []CaptureItem{
		{ID: "a", TimestampMs: 0, SizeBytes: 10},
		{ID: "b", TimestampMs: 100, SizeBytes: 10},
		{ID: "c", TimestampMs: 5000, SizeBytes: 10},
		{ID: "d", TimestampMs: 20000, SizeBytes: 10},
		{ID: "e", TimestampMs: 20100, SizeBytes: 10},
		{ID: "f", TimestampMs: 20200, SizeBytes: 10},
	}
	groups, err := GroupItems(items, 1500)
	if err != nil {
		t.Fatalf("GroupItems: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}

	s, err := NewSession(groups, Options{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	// Decide by each group's best member.
	g0, _ := s.Current()
	s.DecideRight(g0.Best().ID)
	g1, _ := s.Current()
	s.DecideDown(g1.Best().ID)
	g2, _ := s.Current()
	s.DecideLeft(g2.Best().ID)

	if s.Phase() != PhaseReviewingDeferred {
		t.Fatalf("phase = %v, want reviewing-deferred", s.Phase())
	}
	it, _ := s.CurrentReview()
	s.DecideUp(it.ID)

	if s.Phase() != PhaseFinished {
		t.Fatalf("phase = %v, want finished", s.Phase())
	}

	sum := s.Summary()
	if sum.Decided != 3 || sum.Deferred != 0 {
		t.Errorf("summary = %+v, want 3 decided, 0 deferred", sum)
	}
	// Deleted group "d,e,f" is 3 items of 10 bytes.
	if sum.DeletedBytes != 30 {
		t.Errorf("DeletedBytes = %d, want 30", sum.DeletedBytes)
	}
}

func TestNewSession_RejectsDuplicateIDs(t *testing.T) {
	g1, _ := NewGroup([]CaptureItem{{ID: "x", TimestampMs: 0}})
	g2, _ := NewGroup([]CaptureItem{{ID: "x", TimestampMs: 9000}})
	if _, err := NewSession([]Group{g1, g2}, Options{}); err == nil {
		t.Error("NewSession with duplicate IDs succeeded, want error")
	}
}

func TestSession_DefaultCaps(t *testing.T) {
	s := newTestSession(t, Options{}, "g0")
	if s.FavoritesCap() != DefaultFavoritesCap {
		t.Errorf("FavoritesCap = %d, want %d", s.FavoritesCap(), DefaultFavoritesCap)
	}
}
