package idhash

import (
	"testing"

	"custody-ledger/internal/domain"
)

func TestComputeEventID(t *testing.T) {
	tests := []struct {
		name         string
		kind         string
		principal    domain.Principal
		asset        domain.AssetID
		nativeAmount uint64
		sequence     uint64
	}{
		{
			name:         "native deposit",
			kind:         domain.EventDeposit,
			principal:    "alice",
			asset:        domain.NativeAsset,
			nativeAmount: 1_000_000_000,
			sequence:     1,
		},
		{
			name:         "token withdrawal",
			kind:         domain.EventWithdrawal,
			principal:    "bob",
			asset:        "tok1",
			nativeAmount: 500,
			sequence:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeEventID(tt.kind, tt.principal, tt.asset, tt.nativeAmount, tt.sequence)

			if len(got) != 64 {
				t.Errorf("ComputeEventID() length = %d, want 64", len(got))
			}

			// Determinism
			again := ComputeEventID(tt.kind, tt.principal, tt.asset, tt.nativeAmount, tt.sequence)
			if got != again {
				t.Error("ComputeEventID() should be deterministic")
			}
		})
	}
}

func TestComputeEventID_SequenceDisambiguates(t *testing.T) {
	first := ComputeEventID(domain.EventDeposit, "alice", domain.NativeAsset, 100, 1)
	second := ComputeEventID(domain.EventDeposit, "alice", domain.NativeAsset, 100, 2)

	if first == second {
		t.Error("identical operations at different sequences should have distinct IDs")
	}
}

func TestComputeEventID_FieldSensitivity(t *testing.T) {
	base := ComputeEventID(domain.EventDeposit, "alice", "tok1", 100, 1)

	variants := []string{
		ComputeEventID(domain.EventWithdrawal, "alice", "tok1", 100, 1),
		ComputeEventID(domain.EventDeposit, "bob", "tok1", 100, 1),
		ComputeEventID(domain.EventDeposit, "alice", "tok2", 100, 1),
		ComputeEventID(domain.EventDeposit, "alice", "tok1", 101, 1),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d should differ from base", i)
		}
	}
}
