package infra

import (
	"context"
	"time"
)

const (
	// Standard backoff constants
	baseDelay = 500 * time.Millisecond
	maxDelay  = 10 * time.Second
)

// Backoff computes capped exponential delays: Base * 2^retry, capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff is the retry schedule of API GET requests.
var DefaultBackoff = Backoff{Base: baseDelay, Max: maxDelay}

// Delay returns the delay before retry number retryCount (0-based).
// If retryCount is negative, it returns Base.
func (b Backoff) Delay(retryCount int) time.Duration {
	if retryCount < 0 {
		return b.Base
	}

	// 2^30 * Base is already far above any sane Max.
	if retryCount > 30 {
		return b.Max
	}

	backoff := b.Base * time.Duration(1<<retryCount)
	if backoff > b.Max || backoff <= 0 {
		return b.Max
	}
	return backoff
}

// CalculateBackoff returns the DefaultBackoff delay for a given retry count.
func CalculateBackoff(retryCount int) time.Duration {
	return DefaultBackoff.Delay(retryCount)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
