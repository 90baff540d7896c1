// Package retry wraps operations against the upstream with an exponential
// backoff policy. Failures are either retryable (timeouts, connection
// resets, HTTP 5xx) or terminal (HTTP 4xx, malformed URLs); terminal ones
// must be marked with Permanent so they surface immediately.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxRetries    = 4
	DefaultBackoffFactor = 1.2
)

// Policy retries an operation up to MaxRetries times, sleeping
// BackoffFactor^n seconds before the n-th retry.
type Policy struct {
	MaxRetries    uint64
	BackoffFactor float64

	// Timer, when set, replaces the real sleeper. Tests inject one to
	// run the schedule deterministically.
	Timer backoff.Timer
}

// DefaultPolicy returns the default policy: 4 retries with a 1.2 backoff
// factor.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BackoffFactor: DefaultBackoffFactor}
}

// Permanent marks err as terminal so Do re-raises it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs op under the policy. The last failure is returned once retries
// are exhausted; ctx cancellation stops the schedule between attempts.
func (p Policy) Do(ctx context.Context, op func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = time.Duration(p.BackoffFactor * float64(time.Second))
	exp.Multiplier = p.BackoffFactor
	exp.RandomizationFactor = 0
	exp.MaxInterval = 24 * time.Hour
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
	return backoff.RetryNotifyWithTimer(op, b, nil, p.Timer)
}
