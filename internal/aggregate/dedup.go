package aggregate

import "airdropLedger/internal/model"

// Deduplicator filters events whose (tx hash, log index) identity was already
// admitted during the run.
type Deduplicator struct {
	state *State
}

func NewDeduplicator(state *State) *Deduplicator {
	return &Deduplicator{state: state}
}

// Admit reports whether the event is seen for the first time. Duplicates are
// counted and rejected. A frozen state admits nothing.
func (d *Deduplicator) Admit(event model.RawEvent) bool {
	if d.state.frozen {
		return false
	}
	id := event.ID()
	if _, ok := d.state.seen[id]; ok {
		d.state.counters.DuplicatesSkipped++
		return false
	}
	d.state.seen[id] = struct{}{}
	return true
}
