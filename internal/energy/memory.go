package energy

import (
	"context"
	"sync"
)

// MemoryLedger keeps balances in process memory. Used by the CLI, the
// local web companion, and tests.
type MemoryLedger struct {
	mu       sync.Mutex
	initial  int64
	balances map[string]int64
}

// NewMemoryLedger creates a ledger seeding unseen users with initial.
func NewMemoryLedger(initial int64) *MemoryLedger {
	return &MemoryLedger{
		initial:  initial,
		balances: make(map[string]int64),
	}
}

func (m *MemoryLedger) balance(uid string) int64 {
	if b, ok := m.balances[uid]; ok {
		return b
	}
	m.balances[uid] = m.initial
	return m.initial
}

func (m *MemoryLedger) Current(_ context.Context, uid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance(uid), nil
}

func (m *MemoryLedger) Consume(_ context.Context, uid string, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balance(uid)
	if b < n {
		return ErrInsufficient
	}
	m.balances[uid] = b - n
	return nil
}

func (m *MemoryLedger) Restore(_ context.Context, uid string, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[uid] = m.balance(uid) + n
	return nil
}

var _ Ledger = (*MemoryLedger)(nil)
