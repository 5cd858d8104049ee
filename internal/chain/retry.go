package chain

import (
	"context"
	"time"
)

// Backoff bounds a retry loop: Retries extra attempts after the first, with exponential
// delays starting at MinDelay and capped at MaxDelay.
type Backoff struct {
	Retries  int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// BlockNumberBackoff is used when resolving the block every quote is pinned to.
var BlockNumberBackoff = Backoff{Retries: 2, MinDelay: 100 * time.Millisecond, MaxDelay: time.Second}

// WithRetry runs fn until it succeeds, the retries are spent, or ctx is done.
func WithRetry(ctx context.Context, b Backoff, fn func(context.Context) error) error {
	if b.Retries < 0 {
		b.Retries = 0
	}
	if b.MinDelay <= 0 {
		b.MinDelay = 100 * time.Millisecond
	}
	if b.MaxDelay < b.MinDelay {
		b.MaxDelay = b.MinDelay
	}

	delay := b.MinDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= b.Retries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
}
