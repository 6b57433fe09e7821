package orchestrators

import (
	"context"
	"time"
)

// RetryPolicy re-runs a failing operation a bounded number of times with
// exponential backoff. The zero value performs a single attempt with no
// retries, which is the dispatcher's default: channel failures are reported,
// not hidden behind retries, unless the operator opts in.
type RetryPolicy struct {
	MaxAttempts int           // total attempts; values < 1 mean 1
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // backoff cap; zero means no cap

	// Sleep is swappable for tests. Nil uses a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration)
}

// Delay returns the backoff delay before the given retry (attempt is
// 1-indexed; the first retry is attempt 1): BaseDelay * 2^(attempt-1),
// capped at MaxDelay.
// PRE: attempt >= 1
// POST: Returns the duration to wait before that retry
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay * (1 << (attempt - 1))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do runs fn until it succeeds, the attempts are exhausted, or the context
// is cancelled. Returns the last error.
// PRE: fn is non-nil
// POST: fn has run between 1 and MaxAttempts times
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			sleep(ctx, p.Delay(i))
			if ctx.Err() != nil {
				return err
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
