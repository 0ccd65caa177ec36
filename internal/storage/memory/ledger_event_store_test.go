package memory

import (
	"context"
	"errors"
	"testing"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

func TestLedgerEventStore_InsertAndGetByPrincipal(t *testing.T) {
	store := NewLedgerEventStore()
	ctx := context.Background()

	events := []*domain.LedgerEvent{
		{EventID: "e2", Kind: domain.EventWithdrawal, Principal: "alice", Timestamp: 2000},
		{EventID: "e1", Kind: domain.EventDeposit, Principal: "alice", Timestamp: 1000},
		{EventID: "e3", Kind: domain.EventDeposit, Principal: "bob", Timestamp: 1500},
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByPrincipal(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByPrincipal failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result))
	}
	if result[0].EventID != "e1" || result[1].EventID != "e2" {
		t.Errorf("Expected timestamp-ordered events, got %s, %s", result[0].EventID, result[1].EventID)
	}
}

func TestLedgerEventStore_GetByTimeRange(t *testing.T) {
	store := NewLedgerEventStore()
	ctx := context.Background()

	for _, e := range []*domain.LedgerEvent{
		{EventID: "e1", Principal: "alice", Timestamp: 1000},
		{EventID: "e2", Principal: "alice", Timestamp: 2000},
		{EventID: "e3", Principal: "bob", Timestamp: 3000},
	} {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByTimeRange(ctx, 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 events in range, got %d", len(result))
	}
}

func TestLedgerEventStore_DuplicateEventID(t *testing.T) {
	store := NewLedgerEventStore()
	ctx := context.Background()

	e := &domain.LedgerEvent{EventID: "e1", Principal: "alice", Timestamp: 1000}
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, &domain.LedgerEvent{EventID: "e1", Principal: "bob", Timestamp: 2000})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestLedgerEventStore_InvalidInput(t *testing.T) {
	store := NewLedgerEventStore()
	ctx := context.Background()

	err := store.Insert(ctx, nil)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}

	err = store.Insert(ctx, &domain.LedgerEvent{EventID: ""})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}
