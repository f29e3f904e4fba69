package scanner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"airdropLedger/internal/model"
)

// EventSource returns the events emitted in an inclusive block range. It must
// be safe to call repeatedly for the same range.
type EventSource interface {
	GetEvents(ctx context.Context, fromBlock, toBlock uint64) ([]model.RawEvent, error)
}

// WindowHandler consumes the events of one successfully fetched window.
type WindowHandler func(ctx context.Context, window Window, events []model.RawEvent) error

// Config holds scan settings.
type Config struct {
	StartBlock  uint64
	EndBlock    uint64
	WindowSize  uint64
	RetryDelay  time.Duration
	WindowDelay time.Duration
}

// Progress describes a single fetch attempt.
type Progress struct {
	Window      Window
	Attempt     int
	WindowsLeft int
	BlocksLeft  uint64
}

// Hooks receive progress signals. Any of them may be nil.
type Hooks struct {
	OnAttempt func(p Progress)
	OnRetry   func(p Progress, err error)
	OnWindow  func(window Window, events int)
}

// Scanner walks the configured block range window by window, strictly in order.
type Scanner struct {
	cfg    Config
	source EventSource
	hooks  Hooks
	logger *zap.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

// New builds a Scanner.
func New(cfg Config, source EventSource, hooks Hooks, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		cfg:    cfg,
		source: source,
		hooks:  hooks,
		logger: logger,
		wait:   sleep,
	}
}

// Scan fetches every window and hands its events to handle. A failing fetch is
// retried on the same window until it succeeds or ctx is cancelled; an error
// from handle aborts the scan.
func (s *Scanner) Scan(ctx context.Context, handle WindowHandler) error {
	if s.source == nil {
		return fmt.Errorf("event source is nil")
	}
	if handle == nil {
		return fmt.Errorf("window handler is nil")
	}

	windows, err := NewWindows(s.cfg.StartBlock, s.cfg.EndBlock, s.cfg.WindowSize)
	if err != nil {
		return err
	}
	total := WindowCount(s.cfg.StartBlock, s.cfg.EndBlock, s.cfg.WindowSize)
	if total == 0 {
		s.logger.Info("nothing to scan", zap.Uint64("start", s.cfg.StartBlock), zap.Uint64("end", s.cfg.EndBlock))
		return nil
	}

	window, ok := windows.Next()
	for idx := uint64(0); ok; idx++ {
		events, err := s.fetchWindow(ctx, window, int(total-idx))
		if err != nil {
			return err
		}

		if err := handle(ctx, window, events); err != nil {
			return fmt.Errorf("handle window %d-%d: %w", window.From, window.To, err)
		}
		if s.hooks.OnWindow != nil {
			s.hooks.OnWindow(window, len(events))
		}
		s.logger.Info("window complete", zap.Uint64("from", window.From), zap.Uint64("to", window.To), zap.Int("events", len(events)))

		if window, ok = windows.Next(); ok {
			if err := s.wait(ctx, s.cfg.WindowDelay); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Scanner) fetchWindow(ctx context.Context, window Window, windowsLeft int) ([]model.RawEvent, error) {
	progress := Progress{
		Window:      window,
		WindowsLeft: windowsLeft,
		BlocksLeft:  s.cfg.EndBlock - window.From,
	}

	var events []model.RawEvent
	err := retryForever(ctx, s.wait, s.cfg.RetryDelay, func(ctx context.Context, attempt int) error {
		progress.Attempt = attempt
		s.logger.Info("fetch window",
			zap.Uint64("from", window.From),
			zap.Uint64("to", window.To),
			zap.Int("windows_left", windowsLeft),
			zap.Uint64("blocks_left", progress.BlocksLeft),
			zap.Int("attempt", attempt),
		)
		if s.hooks.OnAttempt != nil {
			s.hooks.OnAttempt(progress)
		}

		var err error
		events, err = s.source.GetEvents(ctx, window.From, window.To)
		return err
	}, func(attempt int, err error) {
		s.logger.Warn("window fetch failed, retrying",
			zap.Error(err),
			zap.Uint64("from", window.From),
			zap.Uint64("to", window.To),
			zap.Int("attempt", attempt),
			zap.Duration("delay", s.cfg.RetryDelay),
		)
		if s.hooks.OnRetry != nil {
			s.hooks.OnRetry(progress, err)
		}
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
