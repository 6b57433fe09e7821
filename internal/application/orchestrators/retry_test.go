package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(_ context.Context, _ time.Duration) {}

// TestRetryPolicy_ZeroValueSingleAttempt tests that the zero value runs fn once.
func TestRetryPolicy_ZeroValueSingleAttempt(t *testing.T) {
	var p RetryPolicy
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}

// TestRetryPolicy_RetriesUntilSuccess tests that a transient failure is retried.
func TestRetryPolicy_RetriesUntilSuccess(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: noSleep}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

// TestRetryPolicy_ExhaustionReturnsLastError tests the give-up path.
func TestRetryPolicy_ExhaustionReturnsLastError(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 2, Sleep: noSleep}
	last := errors.New("still down")
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return last
	})
	if !errors.Is(err, last) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

// TestRetryPolicy_Delay tests the exponential backoff schedule and cap.
func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	if d := p.Delay(1); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	if d := p.Delay(2); d != 2*time.Second {
		t.Errorf("expected 2s, got %v", d)
	}
	if d := p.Delay(4); d != 5*time.Second {
		t.Errorf("expected cap 5s, got %v", d)
	}
}

// TestRetryPolicy_CancelledContextStops tests that cancellation stops retries.
func TestRetryPolicy_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 5, Sleep: func(context.Context, time.Duration) { cancel() }}
	calls := 0
	first := errors.New("boom")
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return first
	})
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
	if !errors.Is(err, first) {
		t.Errorf("expected first error, got %v", err)
	}
}
