// Package ledger implements the custodial bank: per-account per-asset
// balances, canonical USD accounting, and the deposit/withdraw
// transitions with their guard chains.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/idhash"
	"custody-ledger/internal/normalization"
	"custody-ledger/internal/observability"
	"custody-ledger/internal/storage"
	"custody-ledger/internal/transfer"
)

// AssetRegistry is the registry surface the bank consults.
type AssetRegistry interface {
	IsSupported(ctx context.Context, asset domain.AssetID) (bool, error)
}

// Bank is the custodial ledger. All state transitions are serialized:
// at most one deposit or withdrawal is in flight at a time, so every
// guard sees a settled snapshot.
//
// Transitions write their own state before calling the transfer
// executor. If the executor fails, the state effect is compensated and
// the operation surfaces ErrTransferFailed.
//
// The serializing mutex is held across the executor call and is not
// reentrant. An executor must not call Deposit or Withdraw from within
// Pull or Send; query methods read the stores directly and are safe to
// call at any point.
type Bank struct {
	mu sync.Mutex

	balances storage.BalanceStore
	state    storage.BankStateStore
	events   storage.LedgerEventStore

	registry AssetRegistry
	engine   normalization.Engine
	executor transfer.Executor

	withdrawalLimit domain.USDAmount
	bankCap         domain.USDAmount

	logger *log.Logger
	now    func() time.Time
}

// Options contains configuration for creating a Bank.
type Options struct {
	BalanceStore   storage.BalanceStore
	BankStateStore storage.BankStateStore
	EventStore     storage.LedgerEventStore

	Registry AssetRegistry
	Engine   normalization.Engine
	Executor transfer.Executor

	// WithdrawalLimitUSD caps a single withdrawal's canonical value.
	WithdrawalLimitUSD domain.USDAmount
	// BankCapUSD caps the bank-wide canonical total.
	BankCapUSD domain.USDAmount

	Logger *log.Logger
}

// NewBank creates a bank with the provided collaborators.
func NewBank(opts Options) *Bank {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Bank{
		balances:        opts.BalanceStore,
		state:           opts.BankStateStore,
		events:          opts.EventStore,
		registry:        opts.Registry,
		engine:          opts.Engine,
		executor:        opts.Executor,
		withdrawalLimit: opts.WithdrawalLimitUSD,
		bankCap:         opts.BankCapUSD,
		logger:          logger,
		now:             time.Now,
	}
}

// Deposit credits amount of asset to the caller's balance and pulls the
// assets into custody. Guards run in a fixed order so rejections are
// deterministic: amount, asset support, valuation, bank cap.
func (b *Bank) Deposit(ctx context.Context, caller domain.Principal, asset domain.AssetID, amount uint64) error {
	start := b.now()

	if amount == 0 {
		observability.RecordRejection("deposit", "invalid_amount")
		return domain.ErrInvalidAmount
	}

	supported, err := b.registry.IsSupported(ctx, asset)
	if err != nil {
		return fmt.Errorf("check asset %s: %w", asset, err)
	}
	if !supported {
		observability.RecordRejection("deposit", "not_supported")
		return domain.ErrNotSupported
	}

	value, err := b.engine.USDValue(ctx, asset, amount)
	if err != nil {
		observability.RecordRejection("deposit", "valuation")
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	state, err := b.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("load bank state: %w", err)
	}

	// The persisted total can exceed the configured cap when the bank
	// restarts with a smaller cap, so available space floors at zero.
	available := domain.USDAmount(0)
	if state.TotalDepositedUSD < b.bankCap {
		available = b.bankCap - state.TotalDepositedUSD
	}
	if value > available {
		observability.RecordRejection("deposit", "bank_cap")
		return &domain.BankCapError{
			Requested:      value,
			AvailableSpace: available,
		}
	}

	prev, err := b.balanceOf(ctx, caller, asset)
	if err != nil {
		return err
	}
	if amount > ^uint64(0)-prev {
		observability.RecordRejection("deposit", "overflow")
		return domain.ErrValueOverflow
	}

	// Effects before interactions: balance and accumulators commit
	// before custody moves.
	newBalance := prev + amount
	ts := b.now().UnixMilli()
	if err := b.balances.Upsert(ctx, &domain.BalanceRecord{
		Principal: caller,
		Asset:     asset,
		Amount:    newBalance,
		UpdatedAt: ts,
	}); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}

	newState := domain.BankState{
		DepositsCount:     state.DepositsCount + 1,
		WithdrawalsCount:  state.WithdrawalsCount,
		TotalDepositedUSD: state.TotalDepositedUSD + value,
	}
	if err := b.state.Save(ctx, &newState); err != nil {
		b.revertBalance(ctx, caller, asset, prev, ts)
		return fmt.Errorf("write bank state: %w", err)
	}

	if err := b.executor.Pull(ctx, caller, asset, amount); err != nil {
		b.revertBalance(ctx, caller, asset, prev, ts)
		b.revertState(ctx, state)
		observability.RecordRejection("deposit", "transfer_failed")
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	b.recordEvent(ctx, domain.LedgerEvent{
		EventID: idhash.ComputeEventID(domain.EventDeposit, caller, asset, amount,
			newState.DepositsCount+newState.WithdrawalsCount),
		Kind:         domain.EventDeposit,
		Principal:    caller,
		Asset:        asset,
		NativeAmount: amount,
		USDValue:     value,
		BalanceAfter: newBalance,
		Timestamp:    ts,
	})

	observability.RecordDeposit(uint64(newState.TotalDepositedUSD), b.now().Sub(start).Seconds())
	b.logger.Printf("[ledger] deposit: principal=%s asset=%s amount=%d value=%s total=%s",
		caller, asset, amount, value, newState.TotalDepositedUSD)
	return nil
}

// Withdraw debits amount of asset from the caller's balance and sends
// the assets out of custody. Guard order: amount, asset support,
// balance, valuation, per-withdrawal limit.
func (b *Bank) Withdraw(ctx context.Context, caller domain.Principal, asset domain.AssetID, amount uint64) error {
	start := b.now()

	if amount == 0 {
		observability.RecordRejection("withdrawal", "invalid_amount")
		return domain.ErrInvalidAmount
	}

	supported, err := b.registry.IsSupported(ctx, asset)
	if err != nil {
		return fmt.Errorf("check asset %s: %w", asset, err)
	}
	if !supported {
		observability.RecordRejection("withdrawal", "not_supported")
		return domain.ErrNotSupported
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev, err := b.balanceOf(ctx, caller, asset)
	if err != nil {
		return err
	}
	if amount > prev {
		observability.RecordRejection("withdrawal", "insufficient_balance")
		return &domain.InsufficientBalanceError{Requested: amount, Available: prev}
	}

	value, err := b.engine.USDValue(ctx, asset, amount)
	if err != nil {
		observability.RecordRejection("withdrawal", "valuation")
		return err
	}

	if value > b.withdrawalLimit {
		observability.RecordRejection("withdrawal", "limit")
		return &domain.WithdrawalLimitError{Requested: value, Limit: b.withdrawalLimit}
	}

	state, err := b.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("load bank state: %w", err)
	}

	// Effects before interactions.
	newBalance := prev - amount
	ts := b.now().UnixMilli()
	if err := b.balances.Upsert(ctx, &domain.BalanceRecord{
		Principal: caller,
		Asset:     asset,
		Amount:    newBalance,
		UpdatedAt: ts,
	}); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}

	// The canonical total tracks value in custody, so withdrawals free
	// cap space. It floors at zero: valuations drift between deposit
	// and withdrawal time.
	released := value
	if released > state.TotalDepositedUSD {
		released = state.TotalDepositedUSD
	}
	newState := domain.BankState{
		DepositsCount:     state.DepositsCount,
		WithdrawalsCount:  state.WithdrawalsCount + 1,
		TotalDepositedUSD: state.TotalDepositedUSD - released,
	}
	if err := b.state.Save(ctx, &newState); err != nil {
		b.revertBalance(ctx, caller, asset, prev, ts)
		return fmt.Errorf("write bank state: %w", err)
	}

	if err := b.executor.Send(ctx, caller, asset, amount); err != nil {
		b.revertBalance(ctx, caller, asset, prev, ts)
		b.revertState(ctx, state)
		observability.RecordRejection("withdrawal", "transfer_failed")
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	b.recordEvent(ctx, domain.LedgerEvent{
		EventID: idhash.ComputeEventID(domain.EventWithdrawal, caller, asset, amount,
			newState.DepositsCount+newState.WithdrawalsCount),
		Kind:         domain.EventWithdrawal,
		Principal:    caller,
		Asset:        asset,
		NativeAmount: amount,
		USDValue:     value,
		BalanceAfter: newBalance,
		Timestamp:    ts,
	})

	observability.RecordWithdrawal(uint64(newState.TotalDepositedUSD), b.now().Sub(start).Seconds())
	b.logger.Printf("[ledger] withdrawal: principal=%s asset=%s amount=%d value=%s total=%s",
		caller, asset, amount, value, newState.TotalDepositedUSD)
	return nil
}

// GetUserBalance returns the caller's balance in the asset's native
// precision. Unknown pairs are zero.
func (b *Bank) GetUserBalance(ctx context.Context, principal domain.Principal, asset domain.AssetID) (uint64, error) {
	rec, err := b.balances.Get(ctx, principal, asset)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return rec.Amount, nil
}

// GetUserBalances returns all balance records for a principal.
func (b *Bank) GetUserBalances(ctx context.Context, principal domain.Principal) ([]*domain.BalanceRecord, error) {
	return b.balances.ListByPrincipal(ctx, principal)
}

// GetUSDValue returns the canonical value of the caller's balance in the
// asset, at current prices.
func (b *Bank) GetUSDValue(ctx context.Context, principal domain.Principal, asset domain.AssetID) (domain.USDAmount, error) {
	balance, err := b.GetUserBalance(ctx, principal, asset)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, nil
	}
	return b.engine.USDValue(ctx, asset, balance)
}

// QuoteUSDValue converts an arbitrary native amount of the asset into
// canonical USD at current prices, independent of any balance.
func (b *Bank) QuoteUSDValue(ctx context.Context, asset domain.AssetID, amount uint64) (domain.USDAmount, error) {
	if amount == 0 {
		return 0, nil
	}
	return b.engine.USDValue(ctx, asset, amount)
}

// GetBankStats returns the bank-wide counter snapshot.
func (b *Bank) GetBankStats(ctx context.Context) (*domain.BankStats, error) {
	state, err := b.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bank state: %w", err)
	}
	remaining := domain.USDAmount(0)
	if state.TotalDepositedUSD < b.bankCap {
		remaining = b.bankCap - state.TotalDepositedUSD
	}
	return &domain.BankStats{
		DepositsCount:     state.DepositsCount,
		WithdrawalsCount:  state.WithdrawalsCount,
		TotalDepositedUSD: state.TotalDepositedUSD,
		RemainingCapacity: remaining,
	}, nil
}

// IsSupported reports whether the asset is currently accepted.
func (b *Bank) IsSupported(ctx context.Context, asset domain.AssetID) (bool, error) {
	return b.registry.IsSupported(ctx, asset)
}

// balanceOf reads the current balance, treating a missing record as zero.
func (b *Bank) balanceOf(ctx context.Context, principal domain.Principal, asset domain.AssetID) (uint64, error) {
	rec, err := b.balances.Get(ctx, principal, asset)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return rec.Amount, nil
}

// revertBalance is the compensating write for a failed transition.
// A failing revert leaves the books wrong and is logged loudly.
func (b *Bank) revertBalance(ctx context.Context, principal domain.Principal, asset domain.AssetID, amount uint64, ts int64) {
	err := b.balances.Upsert(ctx, &domain.BalanceRecord{
		Principal: principal,
		Asset:     asset,
		Amount:    amount,
		UpdatedAt: ts,
	})
	if err != nil {
		b.logger.Printf("[ledger] COMPENSATION FAILED: balance %s/%s stuck, wanted %d: %v",
			principal, asset, amount, err)
	}
}

// revertState is the compensating write for the bank accumulators.
func (b *Bank) revertState(ctx context.Context, state *domain.BankState) {
	if err := b.state.Save(ctx, state); err != nil {
		b.logger.Printf("[ledger] COMPENSATION FAILED: bank state stuck: %v", err)
	}
}

// recordEvent appends an audit event. The transition has already
// committed, so event failures are logged, not returned.
func (b *Bank) recordEvent(ctx context.Context, event domain.LedgerEvent) {
	if b.events == nil {
		return
	}
	if err := b.events.Insert(ctx, &event); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		b.logger.Printf("[ledger] record %s event: %v", event.Kind, err)
	}
}
