package loader

import (
	"errors"
	"fmt"
	"math/big"

	"airdropLedger/internal/aggregate"
	"airdropLedger/internal/model"
)

var (
	// ErrInvalidChunkSize is returned for a chunk size below one.
	ErrInvalidChunkSize = errors.New("chunk size must be >= 1")
	// ErrLengthMismatch is returned when a batch has differing address and amount counts.
	ErrLengthMismatch = errors.New("addresses and amounts length mismatch")
)

// DefaultChunkSize is the number of entries per submission.
const DefaultChunkSize = 250

// AmountField selects which ledger amount is submitted to the sink.
type AmountField string

const (
	AmountPrimary   AmountField = "primary"
	AmountSecondary AmountField = "secondary"
)

// ParseAmountField validates an amount field name.
func ParseAmountField(value string) (AmountField, error) {
	switch AmountField(value) {
	case AmountPrimary, AmountSecondary:
		return AmountField(value), nil
	case "":
		return AmountPrimary, nil
	default:
		return "", fmt.Errorf("unsupported amount field: %q", value)
	}
}

// Chunk is a contiguous slice of the ledger submitted in one call. Offset is
// the position of its first entry in the slice it was split from.
type Chunk struct {
	Index     int
	Offset    int
	Addresses []string
	Amounts   []string
	Total     *big.Int
}

// SplitChunks partitions entries into chunks of at most size entries,
// preserving order. The last chunk may be smaller.
func SplitChunks(entries []model.LedgerEntry, size int, field AmountField) ([]Chunk, error) {
	if size < 1 {
		return nil, ErrInvalidChunkSize
	}

	chunks := make([]Chunk, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}

		chunk := Chunk{
			Index:     len(chunks),
			Offset:    start,
			Addresses: make([]string, 0, end-start),
			Amounts:   make([]string, 0, end-start),
			Total:     new(big.Int),
		}
		for i := start; i < end; i++ {
			amount, err := entryAmount(entries[i], field)
			if err != nil {
				return nil, fmt.Errorf("entry %d (%s): %w", i, entries[i].Address, err)
			}
			chunk.Addresses = append(chunk.Addresses, entries[i].Address)
			chunk.Amounts = append(chunk.Amounts, amount.String())
			chunk.Total.Add(chunk.Total, amount)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func entryAmount(entry model.LedgerEntry, field AmountField) (*big.Int, error) {
	switch field {
	case AmountPrimary, "":
		return aggregate.ParseAmount(entry.PrimaryAmount)
	case AmountSecondary:
		if entry.SecondaryAllocation == "" {
			return nil, fmt.Errorf("ledger has no secondary allocation")
		}
		return aggregate.ParseAmount(entry.SecondaryAllocation)
	default:
		return nil, fmt.Errorf("unsupported amount field: %q", field)
	}
}
