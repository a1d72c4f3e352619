package monitor

import (
	"context"
	"errors"
	"time"

	"solana-wallet-monitor/services/resolver"
	"solana-wallet-monitor/services/transaction"
)

const (
	DefaultMaxAttempts = 3
	maxBackoff         = 3 * time.Second
)

// BackoffFunc returns how long to wait before the next attempt. attempt is
// the 1-based number of the attempt that just failed.
type BackoffFunc func(attempt int, err error) time.Duration

// DefaultBackoff waits longer for rate limiting than for other retryable
// failures and never more than 3s.
func DefaultBackoff(attempt int, err error) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	step := time.Second
	if errors.Is(err, resolver.ErrRateLimited) {
		step = 2 * time.Second
	}

	wait := step * time.Duration(attempt)
	if wait > maxBackoff {
		wait = maxBackoff
	}
	return wait
}

// RetryState tracks the attempts spent on one signature.
type RetryState struct {
	Signature   transaction.Signature
	MaxAttempts int
	Attempts    int
	LastErr     error
}

func (r *RetryState) Record(err error) {
	r.Attempts++
	r.LastErr = err
}

// Exhausted reports whether another attempt would exceed the bound.
func (r *RetryState) Exhausted() bool {
	return r.Attempts >= r.MaxAttempts
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
