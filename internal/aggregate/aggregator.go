package aggregate

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"airdropLedger/internal/model"
)

// Event field names carried by contribution events.
const (
	FieldUser   = "user"
	FieldAmount = "amount"
)

// Aggregator folds admitted events into per-address totals. It trusts its
// input and performs no deduplication of its own.
type Aggregator struct {
	state *State
}

func NewAggregator(state *State) *Aggregator {
	return &Aggregator{state: state}
}

// Apply adds the event amount to the contributor's running total.
func (a *Aggregator) Apply(event model.RawEvent) error {
	if a.state.frozen {
		return ErrFrozen
	}

	address, err := CanonicalAddress(event.Fields[FieldUser])
	if err != nil {
		return fmt.Errorf("event %s: %w", event.ID(), err)
	}
	amount, err := ParseAmount(event.Fields[FieldAmount])
	if err != nil {
		return fmt.Errorf("event %s: %w", event.ID(), err)
	}

	rec := a.state.record(address, event)
	rec.PrimaryAmount.Add(rec.PrimaryAmount, amount)
	rec.Events++
	a.state.counters.EventsProcessed++
	return nil
}

// CanonicalAddress validates a hex address and returns its lowercase form.
func CanonicalAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return "", fmt.Errorf("invalid address: %q", input)
	}
	return strings.ToLower(common.HexToAddress(input).Hex()), nil
}

// ParseAmount parses a non-negative base-unit integer.
func ParseAmount(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("missing amount")
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %s", value)
	}
	return parsed, nil
}
