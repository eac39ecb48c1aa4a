// Package energy owns the per-user energy balance that rate-limits
// Blitz decisions. The triage engine only gates on a remaining value;
// balances live behind the Ledger interface so policy (server-backed,
// in-memory, unlimited for pro) swaps without touching the engine.
package energy

import (
	"context"
	"errors"
	"math"
)

// DefaultInitialBalance seeds new accounts. Runtime config can
// override.
const DefaultInitialBalance int64 = 50

// ErrInsufficient is returned by Consume when the balance cannot cover
// the requested amount.
var ErrInsufficient = errors.New("energy: insufficient balance")

// Ledger is the accounting store for energy balances.
type Ledger interface {
	// Current returns the remaining balance for a user.
	Current(ctx context.Context, uid string) (int64, error)

	// Consume deducts n from the balance, failing with ErrInsufficient
	// when it would go negative.
	Consume(ctx context.Context, uid string, n int64) error

	// Restore credits n back, e.g. after an undo.
	Restore(ctx context.Context, uid string, n int64) error
}

// Unlimited is the pro-account policy: bottomless balance, accounting
// calls are no-ops.
type Unlimited struct{}

func (Unlimited) Current(context.Context, string) (int64, error) { return math.MaxInt64, nil }
func (Unlimited) Consume(context.Context, string, int64) error   { return nil }
func (Unlimited) Restore(context.Context, string, int64) error   { return nil }

var _ Ledger = Unlimited{}
