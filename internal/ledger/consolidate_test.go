package ledger

import (
	"fmt"
	"math/big"
	"testing"

	"airdropLedger/internal/aggregate"
	"airdropLedger/internal/allocation"
	"airdropLedger/internal/model"
)

func buildState(t *testing.T, events []model.RawEvent) (*aggregate.State, map[string]struct{}) {
	t.Helper()
	state := aggregate.NewState()
	dedup := aggregate.NewDeduplicator(state)
	agg := aggregate.NewAggregator(state)

	admitted := make(map[string]struct{})
	for _, event := range events {
		if !dedup.Admit(event) {
			continue
		}
		if err := agg.Apply(event); err != nil {
			t.Fatalf("apply: %v", err)
		}
		address, _ := aggregate.CanonicalAddress(event.Fields[aggregate.FieldUser])
		admitted[address] = struct{}{}
	}
	state.Freeze()
	return state, admitted
}

func contribution(tx string, logIndex uint64, user string, amount string) model.RawEvent {
	return model.RawEvent{
		EventName: "Buy",
		TxHash:    tx,
		LogIndex:  logIndex,
		Fields:    map[string]string{aggregate.FieldUser: user, aggregate.FieldAmount: amount},
	}
}

func TestConsolidateBijection(t *testing.T) {
	var events []model.RawEvent
	for i := 0; i < 40; i++ {
		user := fmt.Sprintf("0x%040x", i%13+1)
		events = append(events, contribution(fmt.Sprintf("0x%x", i), 0, user, "10"))
	}
	// replayed events must not change anything
	events = append(events, events[:5]...)

	state, admitted := buildState(t, events)
	entries, totals, err := NewConsolidator(nil).Consolidate(state)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}

	if len(entries) != len(admitted) || totals.Contributors != len(admitted) {
		t.Fatalf("entry count mismatch: %d entries, %d admitted", len(entries), len(admitted))
	}
	for _, entry := range entries {
		if _, ok := admitted[entry.Address]; !ok {
			t.Fatalf("unexpected address %s", entry.Address)
		}
		delete(admitted, entry.Address)
	}
	if len(admitted) != 0 {
		t.Fatalf("addresses missing from ledger: %v", admitted)
	}
	if totals.PrimaryTotal != "400" || totals.EventsProcessed != 40 || totals.DuplicatesSkipped != 5 {
		t.Fatalf("totals mismatch: %+v", totals)
	}
}

func TestConsolidateOrderAndAllocation(t *testing.T) {
	state, _ := buildState(t, []model.RawEvent{
		contribution("0x01", 0, "0x2222222222222222222222222222222222222222", "1000000"),
		contribution("0x02", 0, "0x1111111111111111111111111111111111111111", "500000"),
		contribution("0x03", 1, "0x2222222222222222222222222222222222222222", "1000000"),
	})

	calc, err := allocation.NewCalculator(allocation.Config{
		PrimaryDecimals:   6,
		SecondaryDecimals: 18,
		Price:             big.NewInt(500_000),
		ClaimPercent:      10,
	})
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}

	entries, totals, err := NewConsolidator(calc).Consolidate(state)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}

	want := []model.LedgerEntry{
		{
			Address:             "0x2222222222222222222222222222222222222222",
			PrimaryAmount:       "2000000",
			SecondaryAllocation: "400000000000",
			FirstTxHash:         "0x01",
		},
		{
			Address:             "0x1111111111111111111111111111111111111111",
			PrimaryAmount:       "500000",
			SecondaryAllocation: "100000000000",
			FirstTxHash:         "0x02",
		},
	}
	if len(entries) != len(want) {
		t.Fatalf("entries mismatch: %+v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d mismatch: %+v != %+v", i, entries[i], want[i])
		}
	}
	if totals.SecondaryTotal != "500000000000" {
		t.Fatalf("secondary total mismatch: %s", totals.SecondaryTotal)
	}

	rec, _ := state.Record("0x2222222222222222222222222222222222222222")
	if rec.PrimaryAmount.String() != "2000000" {
		t.Fatalf("state mutated: %s", rec.PrimaryAmount)
	}
}

func TestConsolidateRequiresFrozenState(t *testing.T) {
	if _, _, err := NewConsolidator(nil).Consolidate(aggregate.NewState()); err == nil {
		t.Fatalf("expected error for unfrozen state")
	}
}
