package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint records how far a load got. Entries counts ledger entries from
// the start of the ledger that are confirmed on the sink, so it does not
// depend on the chunk size used.
type Checkpoint struct {
	Entries int
	Amount  AmountField
}

// ProgressStore persists the checkpoint of a ledger load.
type ProgressStore interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// FileProgressStore stores progress in a local JSON file.
type FileProgressStore struct {
	Path  string
	RunID string
}

type progressRecord struct {
	RunID            string      `json:"run_id"`
	Amount           AmountField `json:"amount"`
	ConfirmedEntries int         `json:"confirmed_entries"`
	UpdatedAt        string      `json:"updated_at"`
}

func (s *FileProgressStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Path == "" {
		return Checkpoint{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("read progress: %w", err)
	}

	var rec progressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse progress: %w", err)
	}
	if rec.RunID != s.RunID {
		return Checkpoint{}, false, fmt.Errorf("progress file belongs to run %q, ledger is %q", rec.RunID, s.RunID)
	}
	return Checkpoint{Entries: rec.ConfirmedEntries, Amount: rec.Amount}, true, nil
}

func (s *FileProgressStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create progress dir: %w", err)
		}
	}

	rec := progressRecord{
		RunID:            s.RunID,
		Amount:           cp.Amount,
		ConfirmedEntries: cp.Entries,
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write progress tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename progress: %w", err)
	}
	return nil
}
