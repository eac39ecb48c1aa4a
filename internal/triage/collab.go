package triage

import "context"

// OutcomeKind tags the decision applied to a group.
type OutcomeKind uint8

const (
	OutcomeKeep OutcomeKind = iota
	OutcomeDelete
	OutcomeFavorite
	OutcomeDefer
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeKeep:
		return "keep"
	case OutcomeDelete:
		return "delete"
	case OutcomeFavorite:
		return "favorite"
	case OutcomeDefer:
		return "defer"
	default:
		return "unknown"
	}
}

// QuotaGate is the energy collaborator the session consults around each
// decision. Remaining is read synchronously as the gating precondition;
// Consume and Restore are fire-and-forget from the session's point of
// view: implementations make one attempt, log failures, and never block
// the caller. The session only gates — it does not own the balance, so
// quota policy (say, unlimited for pro accounts) stays replaceable.
type QuotaGate interface {
	Remaining() int64
	Consume(n int64)
	Restore(n int64)
}

// Outcome is the definitive result of a finished session: the three
// final buckets, in decision order. Deferred is always empty by the
// time an outcome exists — every deferred group resolves during the
// review pass.
type Outcome struct {
	Kept      []string
	Deleted   []string
	Favorited []string
}

// OutcomeRecorder is the persistence collaborator. Callers invoke it
// once when a session finishes, batched, never per decision. The engine
// itself never calls it; a discarded session must leave stores
// untouched.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, o Outcome) error
}

// Summary condenses a session for display.
type Summary struct {
	Groups       int
	Decided      int
	Kept         int
	Deleted      int
	Favorited    int
	Deferred     int
	DeletedBytes int64
}
