package pipeline

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Pacer spaces oracle calls. The first call goes out immediately; every
// later call waits delay + U(0, jitter). Pacing can be changed while a run
// is in progress.
type Pacer struct {
	mu      sync.Mutex
	delay   time.Duration
	jitter  time.Duration
	sleep   SleepFunc
	started bool
	waited  time.Duration
}

// NewPacer creates a pacer. A nil sleep uses Sleep.
func NewPacer(delay, jitter time.Duration, sleep SleepFunc) *Pacer {
	if sleep == nil {
		sleep = Sleep
	}
	return &Pacer{delay: delay, jitter: jitter, sleep: sleep}
}

// SetPacing replaces the delay and jitter for subsequent calls.
func (p *Pacer) SetPacing(delay, jitter time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay, p.jitter = delay, jitter
}

// Wait blocks until the next call may be made.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.started = true
		p.mu.Unlock()
		return ctx.Err()
	}
	d := p.delay
	if p.jitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.jitter) + 1))
	}
	p.waited += d
	p.mu.Unlock()

	return p.sleep(ctx, d)
}

// Waited returns the total pacing delay so far.
func (p *Pacer) Waited() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waited
}
