package transfer

import (
	"context"
	"fmt"
	"sync"

	"custody-ledger/internal/domain"
)

// Movement records a single custody movement executed by the mock.
type Movement struct {
	Direction string // "pull" or "send"
	Principal domain.Principal
	Asset     domain.AssetID
	Amount    uint64
}

// MockExecutor implements Executor for tests and demos. It records
// every movement and provides controllable failure behavior, including
// a hook that runs mid-transfer so callers can verify their state is
// already committed when custody moves.
type MockExecutor struct {
	mu        sync.Mutex
	movements []Movement

	failPulls bool
	failSends bool

	// onTransfer runs inside Pull/Send before the outcome is decided.
	onTransfer func(Movement)
}

var _ Executor = (*MockExecutor)(nil)

// NewMockExecutor creates a mock executor that succeeds by default.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// FailPulls makes subsequent Pull calls fail.
func (m *MockExecutor) FailPulls(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPulls = fail
}

// FailSends makes subsequent Send calls fail.
func (m *MockExecutor) FailSends(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSends = fail
}

// OnTransfer installs a hook invoked during each movement, before the
// configured outcome applies. Tests use it to re-enter the caller.
func (m *MockExecutor) OnTransfer(hook func(Movement)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTransfer = hook
}

// Movements returns a copy of all recorded movements.
func (m *MockExecutor) Movements() []Movement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Movement, len(m.movements))
	copy(out, m.movements)
	return out
}

// Pull draws assets from a principal into custody.
func (m *MockExecutor) Pull(_ context.Context, from domain.Principal, asset domain.AssetID, amount uint64) error {
	return m.execute(Movement{Direction: "pull", Principal: from, Asset: asset, Amount: amount})
}

// Send releases assets from custody to a principal.
func (m *MockExecutor) Send(_ context.Context, to domain.Principal, asset domain.AssetID, amount uint64) error {
	return m.execute(Movement{Direction: "send", Principal: to, Asset: asset, Amount: amount})
}

func (m *MockExecutor) execute(mv Movement) error {
	m.mu.Lock()
	m.movements = append(m.movements, mv)
	hook := m.onTransfer
	fail := (mv.Direction == "pull" && m.failPulls) || (mv.Direction == "send" && m.failSends)
	m.mu.Unlock()

	if hook != nil {
		hook(mv)
	}

	if fail {
		return fmt.Errorf("%w: mock %s of %d %s", domain.ErrTransferFailed, mv.Direction, mv.Amount, mv.Asset)
	}
	return nil
}
