// Package retry provides the backoff policy shared by every oracle call.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	retrygo "github.com/avast/retry-go/v4"
)

// Defaults.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 8 * time.Second
	DefaultMaxJitter   = 1500 * time.Millisecond
)

// State describes a failed attempt. It exists only for the duration of one
// Do call.
type State struct {
	Attempt   int
	LastError error
	Backoff   time.Duration // before jitter
}

// Policy is exponential backoff with additive jitter:
// BaseDelay * 2^(attempt-1) + U(0, MaxJitter).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration

	// Retryable decides whether a failed attempt is retried. Nil retries
	// every error.
	Retryable func(error) bool

	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(State)
}

// DefaultPolicy returns the default policy, retrying every error.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxJitter:   DefaultMaxJitter,
	}
}

// Backoff returns the wait after the given failed attempt (1-based),
// without jitter.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(1<<(attempt-1))
}

// Delay returns the backoff for attempt plus jitter.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.Backoff(attempt)
	if p.MaxJitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.MaxJitter) + 1))
	}
	return d
}

func (p Policy) attempts() uint {
	if p.MaxAttempts < 1 {
		return 1
	}
	return uint(p.MaxAttempts)
}

// Do runs fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done. The last error is returned unwrapped.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	attempt := 0
	return retrygo.Do(
		func() error {
			attempt++
			return fn(ctx, attempt)
		},
		retrygo.Context(ctx),
		retrygo.Attempts(p.attempts()),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(retryable),
		// Both hooks run after attempt has failed.
		retrygo.DelayType(func(uint, error, *retrygo.Config) time.Duration {
			return p.Delay(attempt)
		}),
		retrygo.OnRetry(func(_ uint, err error) {
			if p.OnRetry == nil || attempt >= int(p.attempts()) || !retryable(err) {
				return
			}
			p.OnRetry(State{Attempt: attempt, LastError: err, Backoff: p.Backoff(attempt)})
		}),
	)
}
