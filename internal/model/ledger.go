package model

// LedgerEntry is the consolidated, per-address output record. Amounts are
// base-unit integers encoded as decimal strings.
type LedgerEntry struct {
	Address             string `json:"address"`
	PrimaryAmount       string `json:"primary_amount"`
	SecondaryAllocation string `json:"secondary_allocation,omitempty"`
	FirstTxHash         string `json:"first_tx_hash"`
}

// LedgerTotals summarises a ledger.
type LedgerTotals struct {
	Contributors      int    `json:"contributors"`
	EventsProcessed   uint64 `json:"events_processed"`
	DuplicatesSkipped uint64 `json:"duplicates_skipped"`
	EventsIgnored     uint64 `json:"events_ignored"`
	PrimaryTotal      string `json:"primary_total"`
	SecondaryTotal    string `json:"secondary_total,omitempty"`
}

// Ledger is the durable artifact between the scan and load phases.
type Ledger struct {
	RunID             string        `json:"run_id"`
	GeneratedAt       string        `json:"generated_at"`
	ChainID           uint64        `json:"chain_id,omitempty"`
	Contract          string        `json:"contract,omitempty"`
	StartBlock        uint64        `json:"start_block"`
	EndBlock          uint64        `json:"end_block"`
	PrimaryDecimals   uint8         `json:"primary_decimals"`
	SecondaryDecimals uint8         `json:"secondary_decimals,omitempty"`
	PrimarySymbol     string        `json:"primary_symbol,omitempty"`
	SecondarySymbol   string        `json:"secondary_symbol,omitempty"`
	Totals            LedgerTotals  `json:"totals"`
	Entries           []LedgerEntry `json:"entries"`
}
