package ledger

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"airdropLedger/internal/aggregate"
	"airdropLedger/internal/model"
)

// WriteFile writes the ledger document atomically.
func WriteFile(path string, doc model.Ledger) error {
	if path == "" {
		return fmt.Errorf("ledger path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}

// ReadFile loads and validates a ledger document.
func ReadFile(path string) (model.Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Ledger{}, fmt.Errorf("read ledger: %w", err)
	}

	var doc model.Ledger
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Ledger{}, fmt.Errorf("parse ledger: %w", err)
	}
	if err := Validate(doc); err != nil {
		return model.Ledger{}, err
	}
	return doc, nil
}

// Validate checks that entries are unique per address, carry valid amounts
// and agree with the recorded totals.
func Validate(doc model.Ledger) error {
	seen := make(map[string]struct{}, len(doc.Entries))
	primaryTotal := new(big.Int)

	for i, entry := range doc.Entries {
		address, err := aggregate.CanonicalAddress(entry.Address)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, ok := seen[address]; ok {
			return fmt.Errorf("entry %d: duplicate address %s", i, address)
		}
		seen[address] = struct{}{}

		amount, err := aggregate.ParseAmount(entry.PrimaryAmount)
		if err != nil {
			return fmt.Errorf("entry %d primary amount: %w", i, err)
		}
		primaryTotal.Add(primaryTotal, amount)

		if entry.SecondaryAllocation != "" {
			if _, err := aggregate.ParseAmount(entry.SecondaryAllocation); err != nil {
				return fmt.Errorf("entry %d secondary allocation: %w", i, err)
			}
		}
	}

	if doc.Totals.Contributors != len(doc.Entries) {
		return fmt.Errorf("totals report %d contributors, ledger has %d entries", doc.Totals.Contributors, len(doc.Entries))
	}
	if doc.Totals.PrimaryTotal != "" && doc.Totals.PrimaryTotal != primaryTotal.String() {
		return fmt.Errorf("totals report primary total %s, entries sum to %s", doc.Totals.PrimaryTotal, primaryTotal)
	}
	return nil
}
