package loader

import (
	"context"
	"fmt"

	"airdropLedger/internal/storage/postgres"
)

// DBProgressStore stores progress in the airdrop_state table, one row per
// amount field under Name.
type DBProgressStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBProgressStore) key(field AmountField) string {
	return s.Name + ":" + string(field)
}

func (s *DBProgressStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Store == nil {
		return Checkpoint{}, false, nil
	}
	var (
		found Checkpoint
		ok    bool
	)
	for _, field := range []AmountField{AmountPrimary, AmountSecondary} {
		value, exists, err := s.Store.LoadState(ctx, s.key(field))
		if err != nil {
			return Checkpoint{}, false, err
		}
		if !exists {
			continue
		}
		if ok {
			return Checkpoint{}, false, fmt.Errorf("progress %s recorded for both amount fields", s.Name)
		}
		found, ok = Checkpoint{Entries: int(value), Amount: field}, true
	}
	return found, ok, nil
}

func (s *DBProgressStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.key(cp.Amount), int64(cp.Entries))
}
