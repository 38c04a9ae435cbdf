package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func fastPolicy() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
}

func TestPolicy_Backoff(t *testing.T) {
	p := Policy{BaseDelay: 8 * time.Second}
	want := []time.Duration{8 * time.Second, 16 * time.Second, 32 * time.Second, 64 * time.Second}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestPolicy_DelayJitterBounds(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxJitter: 1500 * time.Millisecond}
	for i := 0; i < 200; i++ {
		d := p.Delay(2)
		if d < 2*time.Second || d > 3500*time.Millisecond {
			t.Fatalf("Delay(2) = %v, want within [2s, 3.5s]", d)
		}
	}

	p.MaxJitter = 0
	if d := p.Delay(3); d != 4*time.Second {
		t.Errorf("Delay(3) without jitter = %v, want 4s", d)
	}
}

func TestPolicy_Do(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		p := fastPolicy()
		var states []State
		p.OnRetry = func(s State) { states = append(states, s) }

		var seen []int
		err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
			seen = append(seen, attempt)
			if attempt < 3 {
				return errTransient
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
			t.Errorf("attempts = %v, want [1 2 3]", seen)
		}
		if len(states) != 2 || states[1].Attempt != 2 || !errors.Is(states[1].LastError, errTransient) {
			t.Errorf("OnRetry states = %+v", states)
		}
	})

	t.Run("gives up after max attempts with last error", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(context.Background(), func(context.Context, int) error {
			calls++
			return errTransient
		})
		if !errors.Is(err, errTransient) {
			t.Fatalf("Do() error = %v, want errTransient", err)
		}
		if calls != 5 {
			t.Errorf("calls = %d, want 5", calls)
		}
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		p := fastPolicy()
		p.Retryable = func(err error) bool { return !errors.Is(err, errPermanent) }
		calls := 0
		err := p.Do(context.Background(), func(context.Context, int) error {
			calls++
			return errPermanent
		})
		if !errors.Is(err, errPermanent) {
			t.Fatalf("Do() error = %v, want errPermanent", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("zero attempts runs once", func(t *testing.T) {
		calls := 0
		_ = Policy{}.Do(context.Background(), func(context.Context, int) error {
			calls++
			return errTransient
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("context cancellation interrupts backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := Policy{MaxAttempts: 5, BaseDelay: time.Hour}
		start := time.Now()
		err := p.Do(ctx, func(context.Context, int) error {
			cancel()
			return errTransient
		})
		if err == nil {
			t.Fatal("expected error after cancellation")
		}
		if time.Since(start) > 5*time.Second {
			t.Error("Do() did not return promptly after cancellation")
		}
	})
}
