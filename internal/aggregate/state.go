package aggregate

import (
	"errors"
	"math/big"

	"airdropLedger/internal/model"
)

// ErrFrozen is returned when a frozen state is mutated.
var ErrFrozen = errors.New("aggregation state is frozen")

// ContributionRecord accumulates the contributions of one address.
type ContributionRecord struct {
	Address       string
	PrimaryAmount *big.Int
	FirstTxHash   string
	FirstBlock    uint64
	Events        uint64
}

// Counters tracks what the deduplicator and aggregator have seen.
type Counters struct {
	EventsProcessed   uint64
	DuplicatesSkipped uint64
}

// State is the aggregation state of a single run. It is created empty, mutated
// by the Deduplicator and Aggregator while scanning, then frozen and read by the
// consolidator. It is not safe for concurrent use.
type State struct {
	records  map[string]*ContributionRecord
	order    []string
	seen     map[model.EventID]struct{}
	counters Counters
	frozen   bool
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		records: make(map[string]*ContributionRecord),
		seen:    make(map[model.EventID]struct{}),
	}
}

// Freeze marks the state read-only.
func (s *State) Freeze() {
	s.frozen = true
}

// Frozen reports whether Freeze has been called.
func (s *State) Frozen() bool {
	return s.frozen
}

// Len returns the number of distinct addresses.
func (s *State) Len() int {
	return len(s.order)
}

// Counters returns a copy of the run counters.
func (s *State) Counters() Counters {
	return s.counters
}

// Record returns a copy of the record for address.
func (s *State) Record(address string) (ContributionRecord, bool) {
	rec, ok := s.records[address]
	if !ok {
		return ContributionRecord{}, false
	}
	return rec.clone(), true
}

// Each calls fn with a copy of every record in first-contribution order.
func (s *State) Each(fn func(rec ContributionRecord)) {
	for _, address := range s.order {
		fn(s.records[address].clone())
	}
}

// PrimaryTotal returns the sum of all primary amounts.
func (s *State) PrimaryTotal() *big.Int {
	total := new(big.Int)
	for _, rec := range s.records {
		total.Add(total, rec.PrimaryAmount)
	}
	return total
}

func (s *State) record(address string, event model.RawEvent) *ContributionRecord {
	rec, ok := s.records[address]
	if ok {
		return rec
	}
	rec = &ContributionRecord{
		Address:       address,
		PrimaryAmount: new(big.Int),
		FirstTxHash:   event.TxHash,
		FirstBlock:    event.BlockNumber,
	}
	s.records[address] = rec
	s.order = append(s.order, address)
	return rec
}

func (r *ContributionRecord) clone() ContributionRecord {
	out := *r
	out.PrimaryAmount = new(big.Int).Set(r.PrimaryAmount)
	return out
}
