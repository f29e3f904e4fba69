package report

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/shopspring/decimal"

	"airdropLedger/internal/model"
)

// FormatUnits renders a base-unit integer string with the given decimals.
func FormatUnits(amount string, decimals uint8) (string, error) {
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return "", fmt.Errorf("invalid amount: %q", amount)
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String(), nil
}

// Render writes a markdown summary of doc.
func Render(w io.Writer, doc model.Ledger) error {
	bw := bufio.NewWriter(w)
	withAllocation := doc.Totals.SecondaryTotal != ""

	primaryTotal, err := FormatUnits(doc.Totals.PrimaryTotal, doc.PrimaryDecimals)
	if err != nil {
		return err
	}

	fmt.Fprintf(bw, "# Totals\n\n")
	fmt.Fprintf(bw, "- Run: `%s` (%s)\n", doc.RunID, doc.GeneratedAt)
	if doc.Contract != "" {
		fmt.Fprintf(bw, "- Contract: `%s` on chain %d\n", doc.Contract, doc.ChainID)
	}
	fmt.Fprintf(bw, "- Blocks: %d to %d\n", doc.StartBlock, doc.EndBlock)
	fmt.Fprintf(bw, "- Contributors: %d\n", doc.Totals.Contributors)
	fmt.Fprintf(bw, "- Events: %d processed, %d duplicates skipped, %d ignored\n",
		doc.Totals.EventsProcessed, doc.Totals.DuplicatesSkipped, doc.Totals.EventsIgnored)
	fmt.Fprintf(bw, "- Total contributed: %s\n", withSymbol(primaryTotal, doc.PrimarySymbol))
	if withAllocation {
		secondaryTotal, err := FormatUnits(doc.Totals.SecondaryTotal, doc.SecondaryDecimals)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "- Total allocation: %s\n", withSymbol(secondaryTotal, doc.SecondarySymbol))
	}

	fmt.Fprintf(bw, "\n## Contributors\n\n")
	if withAllocation {
		fmt.Fprintf(bw, "| Address | Contributed | Allocation |\n|---|---|---|\n")
	} else {
		fmt.Fprintf(bw, "| Address | Contributed |\n|---|---|\n")
	}
	for _, entry := range doc.Entries {
		contributed, err := FormatUnits(entry.PrimaryAmount, doc.PrimaryDecimals)
		if err != nil {
			return fmt.Errorf("entry %s: %w", entry.Address, err)
		}
		if !withAllocation {
			fmt.Fprintf(bw, "| %s | %s |\n", entry.Address, contributed)
			continue
		}
		allocation, err := FormatUnits(entry.SecondaryAllocation, doc.SecondaryDecimals)
		if err != nil {
			return fmt.Errorf("entry %s: %w", entry.Address, err)
		}
		fmt.Fprintf(bw, "| %s | %s | %s |\n", entry.Address, contributed, allocation)
	}

	return bw.Flush()
}

func withSymbol(amount, symbol string) string {
	if symbol == "" {
		return amount
	}
	return amount + " " + symbol
}

// WriteFile renders doc into path.
func WriteFile(path string, doc model.Ledger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
