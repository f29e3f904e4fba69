package model

import "fmt"

// RawEvent is one event occurrence as reported by the event source.
type RawEvent struct {
	EventName   string            `json:"event_name"`
	BlockNumber uint64            `json:"block_number"`
	TxHash      string            `json:"tx_hash"`
	LogIndex    uint64            `json:"log_index"`
	Fields      map[string]string `json:"fields"`
}

// EventID identifies an event across the whole scan.
type EventID struct {
	TxHash   string
	LogIndex uint64
}

// ID returns the dedup identity of the event.
func (e RawEvent) ID() EventID {
	return EventID{TxHash: e.TxHash, LogIndex: e.LogIndex}
}

func (id EventID) String() string {
	return fmt.Sprintf("%s:%d", id.TxHash, id.LogIndex)
}
