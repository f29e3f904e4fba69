package storage

import "airdropLedger/internal/model"

// EventStorage is a sink for admitted raw events.
type EventStorage interface {
	PutEventBatch(events []model.RawEvent) error
}
