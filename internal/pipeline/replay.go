package pipeline

import (
	"fmt"

	"airdropLedger/internal/aggregate"
	"airdropLedger/internal/model"
)

// folder applies the dedup and aggregation rules to batches of raw events.
type folder struct {
	eventName string
	state     *aggregate.State
	dedup     *aggregate.Deduplicator
	agg       *aggregate.Aggregator
	ignored   uint64
}

func newFolder(eventName string) *folder {
	state := aggregate.NewState()
	return &folder{
		eventName: eventName,
		state:     state,
		dedup:     aggregate.NewDeduplicator(state),
		agg:       aggregate.NewAggregator(state),
	}
}

// fold returns the events that were admitted into the state.
func (f *folder) fold(events []model.RawEvent) ([]model.RawEvent, error) {
	admitted := make([]model.RawEvent, 0, len(events))
	for _, event := range events {
		if event.EventName != f.eventName {
			f.ignored++
			continue
		}
		if !f.dedup.Admit(event) {
			continue
		}
		if err := f.agg.Apply(event); err != nil {
			return nil, err
		}
		admitted = append(admitted, event)
	}
	return admitted, nil
}

// Replay rebuilds a frozen state from archived events, in archive order.
func Replay(events []model.RawEvent, eventName string) (*aggregate.State, error) {
	if eventName == "" {
		return nil, fmt.Errorf("event name is required")
	}
	f := newFolder(eventName)
	if _, err := f.fold(events); err != nil {
		return nil, err
	}
	f.state.Freeze()
	return f.state, nil
}
