package energy

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger(50)

	bal, err := m.Current(ctx, "u1")
	if err != nil || bal != 50 {
		t.Fatalf("Current = %d/%v, want 50/nil", bal, err)
	}

	if err := m.Consume(ctx, "u1", 20); err != nil {
		t.Fatalf("Consume(20): %v", err)
	}
	bal, _ = m.Current(ctx, "u1")
	if bal != 30 {
		t.Errorf("balance after consume = %d, want 30", bal)
	}

	if err := m.Consume(ctx, "u1", 31); !errors.Is(err, ErrInsufficient) {
		t.Errorf("over-consume = %v, want ErrInsufficient", err)
	}
	bal, _ = m.Current(ctx, "u1")
	if bal != 30 {
		t.Errorf("balance after rejected consume = %d, want 30", bal)
	}

	if err := m.Restore(ctx, "u1", 5); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	bal, _ = m.Current(ctx, "u1")
	if bal != 35 {
		t.Errorf("balance after restore = %d, want 35", bal)
	}

	// Separate users do not share balances.
	bal, _ = m.Current(ctx, "u2")
	if bal != 50 {
		t.Errorf("fresh user balance = %d, want 50", bal)
	}
}

func TestUnlimited(t *testing.T) {
	ctx := context.Background()
	u := Unlimited{}

	bal, err := u.Current(ctx, "pro")
	if err != nil || bal <= 0 {
		t.Errorf("Current = %d/%v, want very large/nil", bal, err)
	}
	if err := u.Consume(ctx, "pro", 1_000_000); err != nil {
		t.Errorf("Consume: %v", err)
	}
	if err := u.Restore(ctx, "pro", 1); err != nil {
		t.Errorf("Restore: %v", err)
	}
}

// recordingLedger signals each accounting call so tests can wait for
// the gate's background goroutines.
type recordingLedger struct {
	calls chan string
	fail  bool
}

func (r *recordingLedger) Current(context.Context, string) (int64, error) { return 0, nil }

func (r *recordingLedger) Consume(_ context.Context, uid string, n int64) error {
	r.calls <- "consume"
	if r.fail {
		return errors.New("store down")
	}
	return nil
}

func (r *recordingLedger) Restore(_ context.Context, uid string, n int64) error {
	r.calls <- "restore"
	if r.fail {
		return errors.New("store down")
	}
	return nil
}

func awaitCall(t *testing.T, ch chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("ledger saw %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("ledger never saw %q", want)
	}
}

func TestGate_LocalViewAndBackgroundAccounting(t *testing.T) {
	ledger := &recordingLedger{calls: make(chan string, 4)}
	g := NewGate(ledger, "u1", 10)

	if g.Remaining() != 10 {
		t.Fatalf("Remaining = %d, want 10", g.Remaining())
	}

	// Local view updates immediately, before the ledger call lands.
	g.Consume(3)
	if g.Remaining() != 7 {
		t.Errorf("Remaining after consume = %d, want 7", g.Remaining())
	}
	awaitCall(t, ledger.calls, "consume")

	g.Restore(2)
	if g.Remaining() != 9 {
		t.Errorf("Remaining after restore = %d, want 9", g.Remaining())
	}
	awaitCall(t, ledger.calls, "restore")
}

func TestGate_LedgerFailureDoesNotRollBack(t *testing.T) {
	ledger := &recordingLedger{calls: make(chan string, 1), fail: true}
	g := NewGate(ledger, "u1", 10)

	g.Consume(4)
	awaitCall(t, ledger.calls, "consume")

	// One attempt, failure logged, local view stands.
	if g.Remaining() != 6 {
		t.Errorf("Remaining after failed accounting = %d, want 6", g.Remaining())
	}
}
