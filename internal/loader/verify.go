package loader

import (
	"context"
	"fmt"
	"math/big"

	"airdropLedger/internal/model"
)

// ClaimLookup reads the amount the sink recorded for one address.
type ClaimLookup interface {
	LoadedAmount(ctx context.Context, address string) (*big.Int, error)
}

// Mismatch is a ledger entry whose on-sink amount differs from the ledger.
type Mismatch struct {
	Address  string
	Expected string
	Actual   string
}

// Verify compares every entry against the sink, sequentially.
func Verify(ctx context.Context, lookup ClaimLookup, entries []model.LedgerEntry, field AmountField) ([]Mismatch, error) {
	if lookup == nil {
		return nil, fmt.Errorf("claim lookup is nil")
	}

	var mismatches []Mismatch
	for i, entry := range entries {
		expected, err := entryAmount(entry, field)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, entry.Address, err)
		}
		actual, err := lookup.LoadedAmount(ctx, entry.Address)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", entry.Address, err)
		}
		if actual == nil {
			actual = new(big.Int)
		}
		if actual.Cmp(expected) != 0 {
			mismatches = append(mismatches, Mismatch{
				Address:  entry.Address,
				Expected: expected.String(),
				Actual:   actual.String(),
			})
		}
	}
	return mismatches, nil
}
