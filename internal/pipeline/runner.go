package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"airdropLedger/internal/aggregate"
	"airdropLedger/internal/model"
	"airdropLedger/internal/scanner"
	"airdropLedger/internal/storage"
)

// Config holds the scan-to-state settings.
type Config struct {
	Scan      scanner.Config
	EventName string
}

// Result is the outcome of a completed scan. State is frozen.
type Result struct {
	State   *aggregate.State
	Ignored uint64
	Windows int
}

// Runner drives the scanner and folds admitted events into aggregation state.
type Runner struct {
	cfg     Config
	source  scanner.EventSource
	archive storage.EventStorage
	hooks   scanner.Hooks
	logger  *zap.Logger
}

// NewRunner builds a Runner. archive may be nil.
func NewRunner(cfg Config, source scanner.EventSource, archive storage.EventStorage, hooks scanner.Hooks, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		source:  source,
		archive: archive,
		hooks:   hooks,
		logger:  logger,
	}
}

// Run scans the whole range. Nothing is returned unless every window was
// processed; a cancelled or failed run yields only the error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.cfg.EventName == "" {
		return Result{}, fmt.Errorf("event name is required")
	}

	f := newFolder(r.cfg.EventName)
	windows := 0
	handle := func(ctx context.Context, window scanner.Window, events []model.RawEvent) error {
		admitted, err := f.fold(events)
		if err != nil {
			return err
		}
		if r.archive != nil && len(admitted) > 0 {
			if err := r.archive.PutEventBatch(admitted); err != nil {
				return fmt.Errorf("archive events: %w", err)
			}
		}
		windows++
		return nil
	}

	if err := scanner.New(r.cfg.Scan, r.source, r.hooks, r.logger).Scan(ctx, handle); err != nil {
		return Result{}, err
	}

	state := f.state
	state.Freeze()
	counters := state.Counters()
	r.logger.Info("scan complete",
		zap.Int("windows", windows),
		zap.Int("contributors", state.Len()),
		zap.Uint64("events_processed", counters.EventsProcessed),
		zap.Uint64("duplicates_skipped", counters.DuplicatesSkipped),
		zap.Uint64("ignored", f.ignored),
	)

	return Result{State: state, Ignored: f.ignored, Windows: windows}, nil
}
