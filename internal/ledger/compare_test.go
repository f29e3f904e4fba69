package ledger

import (
	"strings"
	"testing"

	"airdropLedger/internal/model"
)

func TestComparePrimary(t *testing.T) {
	want := []model.LedgerEntry{
		{Address: "0x00000000000000000000000000000000000000aa", PrimaryAmount: "125", SecondaryAllocation: "9"},
		{Address: "0x00000000000000000000000000000000000000bb", PrimaryAmount: "55"},
	}
	same := []model.LedgerEntry{
		{Address: "0x00000000000000000000000000000000000000AA", PrimaryAmount: "125"},
		{Address: "0x00000000000000000000000000000000000000bb", PrimaryAmount: "55"},
	}
	if err := ComparePrimary(want, same); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	cases := map[string][]model.LedgerEntry{
		"entries": same[:1],
		"address": {same[1], same[0]},
		"amount":  {same[0], {Address: same[1].Address, PrimaryAmount: "56"}},
	}
	for name, got := range cases {
		err := ComparePrimary(want, got)
		if err == nil || !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: expected %s mismatch, got %v", name, name, err)
		}
	}
}
