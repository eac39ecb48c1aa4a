package triage

import "fmt"

// Phase is the session's position in its lifecycle. Loading happens
// outside the engine: a session is constructed only once groups exist.
type Phase uint8

const (
	PhaseActive Phase = iota
	PhaseReviewingDeferred
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseReviewingDeferred:
		return "reviewing-deferred"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Reference defaults. Product-tuned values with no deeper derivation;
// runtime config overrides both.
const (
	DefaultFavoritesCap = 6
	DefaultDecisionCost = int64(1)
)

// Options configures a session.
type Options struct {
	// FavoritesCap bounds the favorites bucket. Zero or negative means
	// DefaultFavoritesCap.
	FavoritesCap int

	// DecisionCost is the energy charged per decision. Zero or negative
	// means DefaultDecisionCost.
	DecisionCost int64

	// Gate supplies the energy balance. Nil disables gating entirely.
	Gate QuotaGate
}

// decision is the single-slot undo buffer: one tagged record, so the
// item and its outcome can never disagree about being set.
type decision struct {
	id     string
	kind   OutcomeKind
	review bool
}

// Session drives one load-to-completion Blitz cycle over a fixed group
// sequence. It is single-writer state: drive it from one goroutine.
type Session struct {
	groups       []Group
	cursor       int
	kept         []string
	deleted      []string
	favorited    []string
	deferred     []string
	favoritesCap int
	cost         int64
	gate         QuotaGate

	last      *decision
	decided   map[string]OutcomeKind
	reviewing bool
	// reviewCursor walks the deferred sequence during the review pass.
	// Deferred entries stay in place as the iteration order; resolution
	// is recorded in the final buckets.
	reviewCursor int
	finished     bool
	discarded    bool

	itemIndex  map[string]CaptureItem
	groupIndex map[string]int
}

// NewSession builds a fresh session over groups produced by one
// classifier load. Item IDs must be unique across all group members.
// An empty group list finishes immediately.
func NewSession(groups []Group, opts Options) (*Session, error) {
	favCap := opts.FavoritesCap
	if favCap <= 0 {
		favCap = DefaultFavoritesCap
	}
	cost := opts.DecisionCost
	if cost <= 0 {
		cost = DefaultDecisionCost
	}

	s := &Session{
		groups:       make([]Group, len(groups)),
		favoritesCap: favCap,
		cost:         cost,
		gate:         opts.Gate,
		decided:      make(map[string]OutcomeKind),
		itemIndex:    make(map[string]CaptureItem),
		groupIndex:   make(map[string]int),
	}
	copy(s.groups, groups)

	for gi, g := range s.groups {
		if g.Len() == 0 {
			return nil, fmt.Errorf("group %d is empty", gi)
		}
		for _, it := range g.items {
			if it.ID == "" {
				return nil, fmt.Errorf("group %d holds an item with empty ID", gi)
			}
			if _, dup := s.itemIndex[it.ID]; dup {
				return nil, fmt.Errorf("duplicate item ID %q", it.ID)
			}
			s.itemIndex[it.ID] = it
			s.groupIndex[it.ID] = gi
		}
	}

	if len(s.groups) == 0 {
		s.finished = true
	}
	return s, nil
}

// Phase reports where the session stands. Discard does not move the
// phase; check Discarded separately before committing anything.
func (s *Session) Phase() Phase {
	switch {
	case s.finished:
		return PhaseFinished
	case s.reviewing:
		return PhaseReviewingDeferred
	default:
		return PhaseActive
	}
}

func (s *Session) Discarded() bool { return s.discarded }

// Cursor is the index of the group under decision during the primary
// pass; it equals len(groups) once the pass is exhausted.
func (s *Session) Cursor() int { return s.cursor }

// ReviewCursor is the index into the deferred sequence during the
// review pass.
func (s *Session) ReviewCursor() int { return s.reviewCursor }

func (s *Session) FavoritesCap() int { return s.favoritesCap }

// Groups returns the session's group sequence.
func (s *Session) Groups() []Group {
	out := make([]Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Current returns the group awaiting a decision during the primary
// pass.
func (s *Session) Current() (Group, bool) {
	if s.discarded || s.finished || s.reviewing || s.cursor >= len(s.groups) {
		return Group{}, false
	}
	return s.groups[s.cursor], true
}

// CurrentReview returns the deferred item awaiting its final decision
// during the review pass.
func (s *Session) CurrentReview() (CaptureItem, bool) {
	if s.discarded || s.finished || !s.reviewing || s.reviewCursor >= len(s.deferred) {
		return CaptureItem{}, false
	}
	return s.itemIndex[s.deferred[s.reviewCursor]], true
}

// GroupOf resolves the group a decided item ID belongs to, for callers
// mapping bucket entries back onto whole bursts.
func (s *Session) GroupOf(id string) (Group, bool) {
	gi, ok := s.groupIndex[id]
	if !ok {
		return Group{}, false
	}
	return s.groups[gi], true
}

// Item resolves an item ID.
func (s *Session) Item(id string) (CaptureItem, bool) {
	it, ok := s.itemIndex[id]
	return it, ok
}

// CanUndo reports whether a decision is buffered for reversal.
func (s *Session) CanUndo() bool {
	return !s.discarded && !s.finished && s.last != nil
}

func (s *Session) Kept() []string      { return copyIDs(s.kept) }
func (s *Session) Deleted() []string   { return copyIDs(s.deleted) }
func (s *Session) Favorited() []string { return copyIDs(s.favorited) }
func (s *Session) Deferred() []string  { return copyIDs(s.deferred) }

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// DecideLeft deletes the group under the cursor, identified by one of
// its member IDs (conventionally the best shot).
func (s *Session) DecideLeft(id string) error { return s.decide(id, OutcomeDelete) }

// DecideRight keeps the group under the cursor.
func (s *Session) DecideRight(id string) error { return s.decide(id, OutcomeKeep) }

// DecideUp favorites the group under the cursor, bounded by the
// favorites cap.
func (s *Session) DecideUp(id string) error { return s.decide(id, OutcomeFavorite) }

// DecideDown defers the group under the cursor for the review pass.
// Only valid during the primary pass; a group cannot be deferred twice.
func (s *Session) DecideDown(id string) error { return s.decide(id, OutcomeDefer) }

func (s *Session) decide(id string, kind OutcomeKind) error {
	if s.discarded {
		return fmt.Errorf("%w: session discarded", ErrInvalidTransition)
	}
	if s.finished {
		return fmt.Errorf("%w: session finished", ErrInvalidTransition)
	}

	// Energy gate: cross-cutting precondition, checked before anything
	// mutates in either phase.
	if s.gate != nil && s.gate.Remaining() < s.cost {
		return ErrQuotaExhausted
	}

	if s.reviewing {
		return s.decideReview(id, kind)
	}
	return s.decideActive(id, kind)
}

func (s *Session) decideActive(id string, kind OutcomeKind) error {
	gi, ok := s.groupIndex[id]
	if !ok || gi != s.cursor {
		return fmt.Errorf("%w: item %q is not under the cursor", ErrInvalidTransition, id)
	}
	if _, done := s.decided[id]; done {
		return fmt.Errorf("%w: item %q already decided", ErrInvalidTransition, id)
	}
	if kind == OutcomeFavorite && len(s.favorited) >= s.favoritesCap {
		return ErrFavoritesFull
	}

	s.appendBucket(id, kind)
	s.decided[id] = kind
	s.last = &decision{id: id, kind: kind}
	s.cursor++
	if s.gate != nil {
		s.gate.Consume(s.cost)
	}

	if s.cursor == len(s.groups) {
		// Phase boundary: the undo buffer does not survive it.
		s.last = nil
		if len(s.deferred) > 0 {
			s.reviewing = true
			s.reviewCursor = 0
		} else {
			s.finished = true
		}
	}
	return nil
}

func (s *Session) decideReview(id string, kind OutcomeKind) error {
	if kind == OutcomeDefer {
		return fmt.Errorf("%w: defer is disabled during review", ErrInvalidTransition)
	}
	if s.deferred[s.reviewCursor] != id {
		return fmt.Errorf("%w: item %q is not under review", ErrInvalidTransition, id)
	}
	if kind == OutcomeFavorite && len(s.favorited) >= s.favoritesCap {
		return ErrFavoritesFull
	}

	s.appendBucket(id, kind)
	s.decided[id] = kind
	s.last = &decision{id: id, kind: kind, review: true}
	s.reviewCursor++
	if s.gate != nil {
		s.gate.Consume(s.cost)
	}

	if s.reviewCursor == len(s.deferred) {
		s.last = nil
		s.finished = true
	}
	return nil
}

func (s *Session) appendBucket(id string, kind OutcomeKind) {
	switch kind {
	case OutcomeKeep:
		s.kept = append(s.kept, id)
	case OutcomeDelete:
		s.deleted = append(s.deleted, id)
	case OutcomeFavorite:
		s.favorited = append(s.favorited, id)
	case OutcomeDefer:
		s.deferred = append(s.deferred, id)
	}
}

// Undo reverses the single most recent decision: the item leaves the
// bucket it was placed in, the cursor steps back, and the buffer
// clears. Exactly one level; the buffer also clears on phase
// transitions, so the decision that ends a pass cannot be taken back.
func (s *Session) Undo() error {
	if s.discarded {
		return fmt.Errorf("%w: session discarded", ErrInvalidTransition)
	}
	if s.finished {
		return fmt.Errorf("%w: session finished", ErrInvalidTransition)
	}
	if s.last == nil {
		return ErrNothingToUndo
	}

	d := *s.last
	s.removeBucket(d.id, d.kind)
	if d.review {
		// The item re-enters review: it is still in the deferred
		// sequence, only its final outcome is withdrawn.
		s.decided[d.id] = OutcomeDefer
		s.reviewCursor--
	} else {
		delete(s.decided, d.id)
		s.cursor--
	}
	s.last = nil

	if s.gate != nil {
		s.gate.Restore(s.cost)
	}
	return nil
}

func (s *Session) removeBucket(id string, kind OutcomeKind) {
	bucket := &s.kept
	switch kind {
	case OutcomeDelete:
		bucket = &s.deleted
	case OutcomeFavorite:
		bucket = &s.favorited
	case OutcomeDefer:
		bucket = &s.deferred
	}
	// The undone decision is the latest append; scan from the tail.
	b := *bucket
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == id {
			*bucket = append(b[:i], b[i+1:]...)
			return
		}
	}
}

// Discard abandons the session before completion: buckets are dropped,
// nothing is ever committed. Purely a local reset — external stores are
// untouched, which is what makes uncommitted triage safely abortable.
func (s *Session) Discard() error {
	if s.discarded {
		return fmt.Errorf("%w: session already discarded", ErrInvalidTransition)
	}
	if s.finished {
		return fmt.Errorf("%w: session finished", ErrInvalidTransition)
	}
	s.discarded = true
	return nil
}

// Outcome returns the definitive buckets of a finished session. The
// second return is false until the session finishes, and stays false
// forever for discarded sessions.
func (s *Session) Outcome() (Outcome, bool) {
	if !s.finished || s.discarded {
		return Outcome{}, false
	}
	return Outcome{
		Kept:      copyIDs(s.kept),
		Deleted:   copyIDs(s.deleted),
		Favorited: copyIDs(s.favorited),
	}, true
}

// Summary condenses the session's progress for display.
func (s *Session) Summary() Summary {
	sum := Summary{
		Groups:    len(s.groups),
		Kept:      len(s.kept),
		Deleted:   len(s.deleted),
		Favorited: len(s.favorited),
	}
	sum.Decided = sum.Kept + sum.Deleted + sum.Favorited

	pending := len(s.deferred)
	if s.reviewing {
		pending -= s.reviewCursor
	}
	if s.finished {
		pending = 0
	}
	sum.Deferred = pending

	for _, id := range s.deleted {
		if g, ok := s.GroupOf(id); ok {
			sum.DeletedBytes += g.SizeBytes()
		}
	}
	return sum
}
