package providers

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled continuously over a one-minute
// window.
type RateLimiter struct {
	mu sync.Mutex

	perMinute  float64
	tokens     float64
	lastUpdate time.Time
	// pausedUntil is set from a 429 Retry-After; no tokens are handed out
	// before it.
	pausedUntil time.Time

	consumed int64
	waited   time.Duration
	now      func() time.Time
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	TokensAvailable int           `json:"tokens_available"`
	TokensLimit     int           `json:"tokens_limit"`
	TotalConsumed   int64         `json:"total_consumed"`
	TotalWaited     time.Duration `json:"total_waited"`
	PausedUntil     time.Time     `json:"paused_until,omitempty"`
}

// NewRateLimiter creates a limiter allowing requestsPerMinute requests.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &RateLimiter{
		perMinute:  float64(requestsPerMinute),
		tokens:     float64(requestsPerMinute),
		lastUpdate: time.Now(),
		now:        time.Now,
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		wait := r.reserve()
		r.mu.Unlock()
		if wait == 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.mu.Lock()
			r.waited += wait
			r.mu.Unlock()
		}
	}
}

// reserve takes a token and returns 0, or returns how long to wait. Must be
// called with the lock held.
func (r *RateLimiter) reserve() time.Duration {
	now := r.now()
	if now.Before(r.pausedUntil) {
		return r.pausedUntil.Sub(now)
	}
	r.refill(now)
	if r.tokens >= 1 {
		r.tokens--
		r.consumed++
		return 0
	}
	perSecond := r.perMinute / 60
	return time.Duration((1 - r.tokens) / perSecond * float64(time.Second))
}

// Record429 drains the bucket and, when the server named a Retry-After,
// pauses the limiter until then.
func (r *RateLimiter) Record429(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = 0
	if retryAfter > 0 {
		r.pausedUntil = r.now().Add(retryAfter)
	}
}

// Status returns current limiter status.
func (r *RateLimiter) Status() RateLimiterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill(r.now())
	return RateLimiterStatus{
		TokensAvailable: int(r.tokens),
		TokensLimit:     int(r.perMinute),
		TotalConsumed:   r.consumed,
		TotalWaited:     r.waited,
		PausedUntil:     r.pausedUntil,
	}
}

// refill adds tokens for the time elapsed since the last update. Must be
// called with the lock held.
func (r *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed <= 0 {
		return
	}
	r.lastUpdate = now
	r.tokens = min(r.tokens+elapsed*r.perMinute/60, r.perMinute)
}
