package triage

import "errors"

// Recoverable, expected conditions. State is left untouched when any of
// these is returned, so callers can surface them and let the user retry.
var (
	// ErrFavoritesFull rejects a favorite decision once the favorites
	// bucket has reached its cap.
	ErrFavoritesFull = errors.New("triage: favorites full")

	// ErrNothingToUndo rejects Undo when no decision is buffered.
	ErrNothingToUndo = errors.New("triage: nothing to undo")

	// ErrQuotaExhausted rejects any decision whose cost exceeds the
	// remaining energy reported by the quota gate.
	ErrQuotaExhausted = errors.New("triage: quota exhausted")
)

// ErrInvalidTransition marks caller misuse: deciding on a finished or
// discarded session, deferring during the review pass, or passing an
// item that is not the one under the cursor. Callers detect it with
// errors.Is; the wrapped message carries the specifics.
var ErrInvalidTransition = errors.New("triage: invalid transition")
