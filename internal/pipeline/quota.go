package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/archivist/internal/oracle"
)

// guard paces oracle calls and handles the quota pause: on the first
// rejection it persists progress, cools down and retries the same call
// once. A second rejection returns a *HaltError for the caller to complete.
type guard struct {
	pacer    *Pacer
	cooldown time.Duration
	sleep    SleepFunc
	logger   *slog.Logger
}

func (g *guard) do(ctx context.Context, persist func(reason string) error, fn func(context.Context) error) error {
	if err := g.pacer.Wait(ctx); err != nil {
		return err
	}
	err := fn(ctx)
	if !errors.Is(err, oracle.ErrQuotaExhausted) {
		return err
	}

	if perr := persist("quota exhausted, cooling down"); perr != nil {
		return fmt.Errorf("%w before cooldown: %w", ErrCheckpoint, perr)
	}
	g.logger.Warn("oracle quota exhausted, cooling down", "cooldown", g.cooldown, "error", err)
	if err := g.sleep(ctx, g.cooldown); err != nil {
		return err
	}

	if err := g.pacer.Wait(ctx); err != nil {
		return err
	}
	err = fn(ctx)
	if errors.Is(err, oracle.ErrQuotaExhausted) {
		return &HaltError{Err: err}
	}
	if err == nil {
		g.logger.Info("oracle quota recovered after cooldown")
	}
	return err
}
