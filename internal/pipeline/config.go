// Package pipeline drives the oracle over a document: the per-entry
// matcher, the enrichment pass and the whole-document scan. It owns
// pacing, quota cooldown and checkpointing.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jackzampolin/archivist/internal/chunk"
)

// Defaults.
const (
	DefaultMinLength       = 50
	DefaultDelay           = 1500 * time.Millisecond
	DefaultDelayJitter     = time.Second
	DefaultCooldown        = 60 * time.Second
	DefaultCheckpointEvery = 5
)

// Config holds pipeline tuning shared by every stage.
type Config struct {
	// MinLength is the minimum article length in runes.
	MinLength int

	// Delay plus U(0, DelayJitter) separates consecutive oracle calls.
	Delay       time.Duration
	DelayJitter time.Duration

	// Cooldown is the pause after the first quota rejection.
	Cooldown time.Duration

	// CheckpointEvery persists progress after this many new records. Halts,
	// cancellation and the end of a stage persist immediately, so an abrupt
	// kill loses at most CheckpointEvery-1 records; a rerun with resume
	// redoes only those.
	CheckpointEvery int
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		MinLength:       DefaultMinLength,
		Delay:           DefaultDelay,
		DelayJitter:     DefaultDelayJitter,
		Cooldown:        DefaultCooldown,
		CheckpointEvery: DefaultCheckpointEvery,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MinLength < 0 {
		return fmt.Errorf("%w: min_length must be >= 0, got %d", chunk.ErrInvalidConfiguration, c.MinLength)
	}
	if c.Delay < 0 || c.DelayJitter < 0 || c.Cooldown < 0 {
		return fmt.Errorf("%w: delays must be >= 0", chunk.ErrInvalidConfiguration)
	}
	if c.CheckpointEvery < 1 {
		return fmt.Errorf("%w: checkpoint_every must be >= 1, got %d", chunk.ErrInvalidConfiguration, c.CheckpointEvery)
	}
	return nil
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
