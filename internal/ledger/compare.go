package ledger

import (
	"fmt"
	"strings"

	"airdropLedger/internal/model"
)

// ComparePrimary checks that two entry lists name the same addresses in the
// same order with the same primary amounts. Allocations are not compared.
func ComparePrimary(want, got []model.LedgerEntry) error {
	if len(want) != len(got) {
		return fmt.Errorf("ledger has %d entries, replay has %d", len(want), len(got))
	}
	for i := range want {
		if !strings.EqualFold(want[i].Address, got[i].Address) {
			return fmt.Errorf("entry %d: ledger address %s, replay address %s", i, want[i].Address, got[i].Address)
		}
		if want[i].PrimaryAmount != got[i].PrimaryAmount {
			return fmt.Errorf("entry %d (%s): ledger amount %s, replay amount %s", i, want[i].Address, want[i].PrimaryAmount, got[i].PrimaryAmount)
		}
	}
	return nil
}
