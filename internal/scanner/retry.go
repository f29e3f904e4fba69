package scanner

import (
	"context"
	"time"
)

// retryForever calls fn until it succeeds, waiting a fixed delay between
// attempts. It only gives up when ctx is done.
func retryForever(ctx context.Context, wait func(context.Context, time.Duration) error, delay time.Duration, fn func(ctx context.Context, attempt int) error, onRetry func(attempt int, err error)) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		if err := wait(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
