package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"airdropLedger/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	run_id               TEXT        NOT NULL,
	position             INTEGER     NOT NULL,
	address              TEXT        NOT NULL,
	primary_amount       NUMERIC(78) NOT NULL,
	secondary_allocation NUMERIC(78),
	first_tx_hash        TEXT        NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, address)
);
CREATE TABLE IF NOT EXISTS airdrop_state (
	name       TEXT        PRIMARY KEY,
	value      BIGINT      NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for ledgers and load progress.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertLedgerEntries inserts or updates the entries of one run.
func (s *Store) UpsertLedgerEntries(ctx context.Context, runID string, entries []model.LedgerEntry) error {
	if runID == "" {
		return fmt.Errorf("run id required")
	}
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, entry := range entries {
		var secondary *string
		if entry.SecondaryAllocation != "" {
			value := entry.SecondaryAllocation
			secondary = &value
		}
		batch.Queue(`
			INSERT INTO ledger_entries (
				run_id, position, address, primary_amount, secondary_allocation, first_tx_hash, created_at, updated_at
			) VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric, $6, now(), now())
			ON CONFLICT (run_id, address)
			DO UPDATE SET
				position = EXCLUDED.position,
				primary_amount = EXCLUDED.primary_amount,
				secondary_allocation = EXCLUDED.secondary_allocation,
				first_tx_hash = EXCLUDED.first_tx_hash,
				updated_at = now()
		`,
			runID,
			i,
			entry.Address,
			entry.PrimaryAmount,
			secondary,
			entry.FirstTxHash,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the stored value for a name.
func (s *Store) LoadState(ctx context.Context, name string) (int64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var value int64
	row := s.pool.QueryRow(ctx, `SELECT value FROM airdrop_state WHERE name=$1`, name)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return value, true, nil
}

// SaveState upserts the value for a name.
func (s *Store) SaveState(ctx context.Context, name string, value int64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO airdrop_state (name, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`, name, value)
	return err
}
