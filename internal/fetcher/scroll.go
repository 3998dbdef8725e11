package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/newsroom-crawler/internal/retry"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ctxSleep is the production SleepFunc.
func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ScrollConfig bounds a scroll-to-fixed-point run.
type ScrollConfig struct {
	Pause      time.Duration
	MaxScrolls int
	Retry      retry.Config
}

// ScrollToFixedPoint scrolls b to the bottom repeatedly until the document
// height stops growing or MaxScrolls is reached. A failed pass is retried
// from the current position under cfg.Retry. It returns the number of
// scrolls performed by the successful pass.
func ScrollToFixedPoint(ctx context.Context, b Browser, cfg ScrollConfig, sleep SleepFunc) (int, error) {
	if sleep == nil {
		sleep = ctxSleep
	}

	var scrolls int
	err := retry.Do(ctx, cfg.Retry, func() error {
		n, passErr := scrollPass(ctx, b, cfg, sleep)
		scrolls = n
		return passErr
	})
	if err != nil {
		return scrolls, fmt.Errorf("scroll to fixed point: %w", err)
	}

	return scrolls, nil
}

func scrollPass(ctx context.Context, b Browser, cfg ScrollConfig, sleep SleepFunc) (int, error) {
	last, err := b.Height(ctx)
	if err != nil {
		return 0, err
	}

	scrolls := 0
	for scrolls < cfg.MaxScrolls {
		if err = b.ScrollToBottom(ctx); err != nil {
			return scrolls, err
		}
		if err = sleep(ctx, cfg.Pause); err != nil {
			return scrolls, err
		}
		scrolls++

		height, heightErr := b.Height(ctx)
		if heightErr != nil {
			return scrolls, heightErr
		}
		if height <= last {
			return scrolls, nil
		}
		last = height
	}

	return scrolls, nil
}
