package energy

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/triage"
)

// accountingTimeout bounds each background ledger call.
const accountingTimeout = 5 * time.Second

// Gate adapts a Ledger to the triage engine's quota collaborator. The
// gate holds a local view of the balance, seeded once at session start:
// Remaining is answered synchronously from that view, while Consume and
// Restore update it locally and push to the ledger in the background —
// one attempt, failures logged, never rolled back and never blocking a
// decision.
type Gate struct {
	ledger    Ledger
	uid       string
	remaining atomic.Int64
}

// NewGate seeds a gate for one session. Callers typically fetch the
// seed via Ledger.Current just before constructing the session.
func NewGate(ledger Ledger, uid string, seed int64) *Gate {
	g := &Gate{ledger: ledger, uid: uid}
	g.remaining.Store(seed)
	return g
}

func (g *Gate) Remaining() int64 { return g.remaining.Load() }

func (g *Gate) Consume(n int64) {
	g.remaining.Add(-n)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), accountingTimeout)
		defer cancel()
		if err := g.ledger.Consume(ctx, g.uid, n); err != nil {
			log.Warn().
				Err(err).
				Str("uid", g.uid).
				Int64("amount", n).
				Msg("Energy consume not recorded")
		}
	}()
}

func (g *Gate) Restore(n int64) {
	g.remaining.Add(n)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), accountingTimeout)
		defer cancel()
		if err := g.ledger.Restore(ctx, g.uid, n); err != nil {
			log.Warn().
				Err(err).
				Str("uid", g.uid).
				Int64("amount", n).
				Msg("Energy restore not recorded")
		}
	}()
}

var _ triage.QuotaGate = (*Gate)(nil)
