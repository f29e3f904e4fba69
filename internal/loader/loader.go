package loader

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"airdropLedger/internal/model"
)

// Confirmation describes a mined batch submission.
type Confirmation struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
}

// Sink is the external claim store.
type Sink interface {
	SubmitBatch(ctx context.Context, addresses []string, amounts []string) (Confirmation, error)
	TotalLoaded(ctx context.Context) (*big.Int, error)
}

// UserCounter is implemented by sinks that also track loaded users.
type UserCounter interface {
	TotalUsers(ctx context.Context) (*big.Int, error)
}

// Config controls a load.
type Config struct {
	ChunkSize  int
	Amount     AmountField
	StartChunk int
	Resume     bool
	DryRun     bool
	Progress   ProgressStore
}

// Hooks receive per-chunk signals. Any of them may be nil.
type Hooks struct {
	OnSubmit func(chunk Chunk, took time.Duration, err error)
}

// Result summarises a load.
type Result struct {
	Chunks         int
	FirstEntry     int
	Submitted      int
	Entries        int
	SubmittedTotal *big.Int
	LoadedBefore   *big.Int
	LoadedAfter    *big.Int
	UsersBefore    *big.Int
	UsersAfter     *big.Int
	TotalMismatch  bool
	UsersMismatch  bool
	Confirmations  []Confirmation
}

// Loader submits a ledger to a sink in sequential chunks.
type Loader struct {
	cfg    Config
	sink   Sink
	hooks  Hooks
	logger *zap.Logger
}

func New(cfg Config, sink Sink, hooks Hooks, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Amount == "" {
		cfg.Amount = AmountPrimary
	}
	return &Loader{
		cfg:    cfg,
		sink:   sink,
		hooks:  hooks,
		logger: logger,
	}
}

// Load submits entries chunk by chunk, waiting for each confirmation before
// the next submission. A failed submission aborts the load. After the last
// chunk the sink totals are compared with what was submitted; a difference is
// reported in the Result and logged, not returned as an error.
func (l *Loader) Load(ctx context.Context, entries []model.LedgerEntry) (Result, error) {
	if l.sink == nil && !l.cfg.DryRun {
		return Result{}, fmt.Errorf("sink is nil")
	}

	if l.cfg.ChunkSize < 1 {
		return Result{}, ErrInvalidChunkSize
	}

	first, err := l.firstEntry(ctx, len(entries))
	if err != nil {
		return Result{}, err
	}

	chunks, err := SplitChunks(entries[first:], l.cfg.ChunkSize, l.cfg.Amount)
	if err != nil {
		return Result{}, err
	}
	for i := range chunks {
		chunks[i].Offset += first
	}

	res := Result{
		Chunks:         len(chunks),
		FirstEntry:     first,
		SubmittedTotal: new(big.Int),
	}

	if l.cfg.DryRun {
		for _, chunk := range chunks {
			res.Entries += len(chunk.Addresses)
			res.SubmittedTotal.Add(res.SubmittedTotal, chunk.Total)
			l.logger.Info("dry run chunk", zap.Int("chunk", chunk.Index), zap.Int("entries", len(chunk.Addresses)), zap.String("total", chunk.Total.String()))
		}
		return res, nil
	}

	res.LoadedBefore, err = l.sink.TotalLoaded(ctx)
	if err != nil {
		return res, fmt.Errorf("total loaded before load: %w", err)
	}
	counter, hasUsers := l.sink.(UserCounter)
	if hasUsers {
		if res.UsersBefore, err = counter.TotalUsers(ctx); err != nil {
			return res, fmt.Errorf("total users before load: %w", err)
		}
	}

	for _, chunk := range chunks {
		if len(chunk.Addresses) != len(chunk.Amounts) {
			return res, fmt.Errorf("chunk %d: %w", chunk.Index, ErrLengthMismatch)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		l.logger.Info("submit chunk",
			zap.Int("chunk", chunk.Index),
			zap.Int("of", len(chunks)),
			zap.Int("offset", chunk.Offset),
			zap.Int("entries", len(chunk.Addresses)),
			zap.String("total", chunk.Total.String()),
		)

		start := time.Now()
		conf, err := l.sink.SubmitBatch(ctx, chunk.Addresses, chunk.Amounts)
		if l.hooks.OnSubmit != nil {
			l.hooks.OnSubmit(chunk, time.Since(start), err)
		}
		if err != nil {
			return res, fmt.Errorf("submit chunk %d: %w", chunk.Index, err)
		}

		res.Submitted++
		res.Entries += len(chunk.Addresses)
		res.SubmittedTotal.Add(res.SubmittedTotal, chunk.Total)
		res.Confirmations = append(res.Confirmations, conf)

		l.logger.Info("chunk confirmed",
			zap.Int("chunk", chunk.Index),
			zap.String("tx", conf.TxHash),
			zap.Uint64("block", conf.BlockNumber),
			zap.Uint64("gas_used", conf.GasUsed),
		)

		if l.cfg.Progress != nil {
			cp := Checkpoint{Entries: chunk.Offset + len(chunk.Addresses), Amount: l.cfg.Amount}
			if err := l.cfg.Progress.Save(ctx, cp); err != nil {
				return res, fmt.Errorf("save progress: %w", err)
			}
		}
	}

	res.LoadedAfter, err = l.sink.TotalLoaded(ctx)
	if err != nil {
		return res, fmt.Errorf("total loaded after load: %w", err)
	}
	delta := new(big.Int).Sub(res.LoadedAfter, res.LoadedBefore)
	if delta.Cmp(res.SubmittedTotal) != 0 {
		res.TotalMismatch = true
		l.logger.Warn("total loaded mismatch",
			zap.String("submitted", res.SubmittedTotal.String()),
			zap.String("loaded_before", res.LoadedBefore.String()),
			zap.String("loaded_after", res.LoadedAfter.String()),
		)
	}

	if hasUsers {
		if res.UsersAfter, err = counter.TotalUsers(ctx); err != nil {
			return res, fmt.Errorf("total users after load: %w", err)
		}
		users := new(big.Int).Sub(res.UsersAfter, res.UsersBefore)
		if users.Cmp(big.NewInt(int64(res.Entries))) != 0 {
			res.UsersMismatch = true
			l.logger.Warn("total users mismatch",
				zap.Int("submitted", res.Entries),
				zap.String("users_before", res.UsersBefore.String()),
				zap.String("users_after", res.UsersAfter.String()),
			)
		}
	}

	return res, nil
}

// firstEntry returns the ledger position the load starts at. StartChunk is
// counted in chunks of the configured size; a resumed load continues after the
// last confirmed entry, whatever chunk size recorded it.
func (l *Loader) firstEntry(ctx context.Context, total int) (int, error) {
	if l.cfg.StartChunk < 0 {
		return 0, fmt.Errorf("start chunk must be >= 0")
	}
	first := l.cfg.StartChunk * l.cfg.ChunkSize

	if l.cfg.Resume && l.cfg.Progress != nil {
		cp, ok, err := l.cfg.Progress.Load(ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			if cp.Amount != l.cfg.Amount {
				return 0, fmt.Errorf("progress was recorded loading %s amounts, this load uses %s", cp.Amount, l.cfg.Amount)
			}
			if cp.Entries > total {
				return 0, fmt.Errorf("progress records %d confirmed entries, ledger has %d", cp.Entries, total)
			}
			if cp.Entries > first {
				first = cp.Entries
				l.logger.Info("resume from progress", zap.Int("confirmed_entries", cp.Entries))
			}
		}
	}

	if first > total {
		return 0, fmt.Errorf("start chunk %d begins at entry %d, ledger has %d", l.cfg.StartChunk, first, total)
	}
	return first, nil
}
