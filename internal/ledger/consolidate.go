package ledger

import (
	"fmt"
	"math/big"

	"airdropLedger/internal/aggregate"
	"airdropLedger/internal/allocation"
	"airdropLedger/internal/model"
)

// Consolidator turns a frozen aggregation state into ledger entries.
type Consolidator struct {
	calc *allocation.Calculator
}

// NewConsolidator builds a Consolidator. calc may be nil, in which case no
// secondary allocation is emitted.
func NewConsolidator(calc *allocation.Calculator) *Consolidator {
	return &Consolidator{calc: calc}
}

// Consolidate emits one entry per address in first-contribution order,
// together with the run totals. The state is only read.
func (c *Consolidator) Consolidate(state *aggregate.State) ([]model.LedgerEntry, model.LedgerTotals, error) {
	if state == nil {
		return nil, model.LedgerTotals{}, fmt.Errorf("aggregation state is nil")
	}
	if !state.Frozen() {
		return nil, model.LedgerTotals{}, fmt.Errorf("aggregation state must be frozen before consolidation")
	}

	entries := make([]model.LedgerEntry, 0, state.Len())
	primaryTotal := new(big.Int)
	secondaryTotal := new(big.Int)

	state.Each(func(rec aggregate.ContributionRecord) {
		entry := model.LedgerEntry{
			Address:       rec.Address,
			PrimaryAmount: rec.PrimaryAmount.String(),
			FirstTxHash:   rec.FirstTxHash,
		}
		primaryTotal.Add(primaryTotal, rec.PrimaryAmount)

		if c.calc != nil {
			allocated := c.calc.Derive(rec.PrimaryAmount)
			entry.SecondaryAllocation = allocated.String()
			secondaryTotal.Add(secondaryTotal, allocated)
		}
		entries = append(entries, entry)
	})

	counters := state.Counters()
	totals := model.LedgerTotals{
		Contributors:      len(entries),
		EventsProcessed:   counters.EventsProcessed,
		DuplicatesSkipped: counters.DuplicatesSkipped,
		PrimaryTotal:      primaryTotal.String(),
	}
	if c.calc != nil {
		totals.SecondaryTotal = secondaryTotal.String()
	}

	return entries, totals, nil
}
