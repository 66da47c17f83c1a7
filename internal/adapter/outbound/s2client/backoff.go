package s2client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryAfterBackOff raises the next delay to a server-provided Retry-After
// hint. The hint applies to one delay only.
type retryAfterBackOff struct {
	inner backoff.BackOff
	hint  time.Duration
	max   time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.inner.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	hint := b.hint
	b.hint = 0
	if b.max > 0 && hint > b.max {
		hint = b.max
	}
	if hint > next {
		next = hint
	}
	return next
}

func (b *retryAfterBackOff) Reset() {
	b.inner.Reset()
	b.hint = 0
}

// setHint records the Retry-After value of the failure just observed.
func (b *retryAfterBackOff) setHint(d time.Duration) {
	b.hint = d
}

// newBackOff builds the schedule for one Send call: exponential delays of
// base, 2*base, 4*base... capped at cfg.BackoffMax, randomised by cfg.Jitter,
// allowing cfg.MaxAttempts attempts in total and stopping when ctx is done.
func (c *Client) newBackOff(ctx context.Context) (backoff.BackOffContext, *retryAfterBackOff) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.BackoffBase
	exp.Multiplier = 2
	exp.RandomizationFactor = c.cfg.Jitter
	exp.MaxInterval = c.cfg.BackoffMax
	exp.MaxElapsedTime = 0
	exp.Reset()

	ra := &retryAfterBackOff{inner: exp, max: c.cfg.BackoffMax}
	return backoff.WithContext(backoff.WithMaxRetries(ra, uint64(c.cfg.MaxAttempts-1)), ctx), ra
}
