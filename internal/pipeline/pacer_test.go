package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPacer(t *testing.T) {
	sl := &sleepLog{}
	p := NewPacer(time.Second, 0, sl.sleep)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if len(sl.sleeps) != 2 || sl.sleeps[0] != time.Second {
		t.Errorf("sleeps = %v, want two 1s waits", sl.sleeps)
	}

	p.SetPacing(2*time.Second, 500*time.Millisecond)
	for i := 0; i < 50; i++ {
		_ = p.Wait(ctx)
	}
	for _, d := range sl.sleeps[2:] {
		if d < 2*time.Second || d > 2500*time.Millisecond {
			t.Fatalf("sleep %v outside [2s, 2.5s]", d)
		}
	}
	if p.Waited() < 102*time.Second {
		t.Errorf("Waited() = %v", p.Waited())
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep did not return promptly")
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.CheckpointEvery = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for checkpoint_every 0")
	}
	bad = DefaultConfig()
	bad.Delay = -time.Second
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative delay")
	}
}
