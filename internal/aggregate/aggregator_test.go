package aggregate

import (
	"errors"
	"math/big"
	"testing"

	"airdropLedger/internal/model"
)

const (
	userA = "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"
	userB = "0x2222222222222222222222222222222222222222"
)

func buyEvent(tx string, logIndex uint64, user, amount string) model.RawEvent {
	return model.RawEvent{
		EventName:   "Buy",
		BlockNumber: 100,
		TxHash:      tx,
		LogIndex:    logIndex,
		Fields:      map[string]string{FieldUser: user, FieldAmount: amount},
	}
}

func feed(t *testing.T, dedup *Deduplicator, agg *Aggregator, events ...model.RawEvent) {
	t.Helper()
	for _, event := range events {
		if !dedup.Admit(event) {
			continue
		}
		if err := agg.Apply(event); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
}

func TestDuplicateEventCountedOnce(t *testing.T) {
	state := NewState()
	dedup := NewDeduplicator(state)
	agg := NewAggregator(state)

	event := buyEvent("0xaaa", 3, userA, "1000000")
	feed(t, dedup, agg, event, event)

	rec, ok := state.Record("0xabcdef0123456789abcdef0123456789abcdef01")
	if !ok {
		t.Fatalf("record missing")
	}
	if rec.PrimaryAmount.String() != "1000000" {
		t.Fatalf("amount mismatch: %s", rec.PrimaryAmount)
	}

	counters := state.Counters()
	if counters.EventsProcessed != 1 || counters.DuplicatesSkipped != 1 {
		t.Fatalf("counters mismatch: %+v", counters)
	}
}

func TestSameTxDifferentLogIndexIsNotDuplicate(t *testing.T) {
	state := NewState()
	feed(t, NewDeduplicator(state), NewAggregator(state),
		buyEvent("0xaaa", 1, userB, "5"),
		buyEvent("0xaaa", 2, userB, "7"),
	)

	rec, _ := state.Record(userB)
	if rec.PrimaryAmount.String() != "12" {
		t.Fatalf("amount mismatch: %s", rec.PrimaryAmount)
	}
}

func TestSummationIsExact(t *testing.T) {
	amounts := []string{
		"1",
		"999999999999999999999999999",
		"123456789012345678901234567890",
		"9007199254740993",
		"0",
		"18446744073709551617",
	}

	state := NewState()
	dedup := NewDeduplicator(state)
	agg := NewAggregator(state)

	want := new(big.Int)
	for i, amount := range amounts {
		v, _ := new(big.Int).SetString(amount, 10)
		want.Add(want, v)
		feed(t, dedup, agg, buyEvent("0xtx", uint64(i), userB, amount))
	}

	rec, _ := state.Record(userB)
	if rec.PrimaryAmount.Cmp(want) != 0 {
		t.Fatalf("sum mismatch: %s != %s", rec.PrimaryAmount, want)
	}
	if state.PrimaryTotal().Cmp(want) != 0 {
		t.Fatalf("total mismatch: %s != %s", state.PrimaryTotal(), want)
	}
}

func TestFirstTxHashAndOrder(t *testing.T) {
	state := NewState()
	feed(t, NewDeduplicator(state), NewAggregator(state),
		buyEvent("0x01", 0, userB, "1"),
		buyEvent("0x02", 0, userA, "2"),
		buyEvent("0x03", 0, userB, "3"),
	)

	var order []string
	state.Each(func(rec ContributionRecord) {
		order = append(order, rec.Address+"@"+rec.FirstTxHash)
	})

	want := []string{
		userB + "@0x01",
		"0xabcdef0123456789abcdef0123456789abcdef01@0x02",
	}
	if len(order) != len(want) || order[0] != want[0] || order[1] != want[1] {
		t.Fatalf("order mismatch: %v", order)
	}
}

func TestRecordIsACopy(t *testing.T) {
	state := NewState()
	feed(t, NewDeduplicator(state), NewAggregator(state), buyEvent("0x01", 0, userB, "10"))

	rec, _ := state.Record(userB)
	rec.PrimaryAmount.SetInt64(999)

	again, _ := state.Record(userB)
	if again.PrimaryAmount.String() != "10" {
		t.Fatalf("state mutated through copy: %s", again.PrimaryAmount)
	}
}

func TestFrozenStateRejectsMutation(t *testing.T) {
	state := NewState()
	state.Freeze()

	if NewDeduplicator(state).Admit(buyEvent("0x01", 0, userB, "1")) {
		t.Fatalf("frozen state admitted an event")
	}
	if err := NewAggregator(state).Apply(buyEvent("0x01", 0, userB, "1")); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
}

func TestApplyRejectsMalformedFields(t *testing.T) {
	cases := []model.RawEvent{
		buyEvent("0x01", 0, "not-an-address", "1"),
		buyEvent("0x02", 0, userB, ""),
		buyEvent("0x03", 0, userB, "1.5"),
		buyEvent("0x04", 0, userB, "-1"),
	}
	for _, event := range cases {
		state := NewState()
		if err := NewAggregator(state).Apply(event); err == nil {
			t.Fatalf("expected error for %+v", event.Fields)
		}
		if state.Len() != 0 {
			t.Fatalf("malformed event created a record")
		}
	}
}
