// Package locate finds candidate regions of a long document that may hold a
// target article.
//
// A Locator chains strategies from most to least specific: page-anchored,
// title scan, then an exhaustive sweep. Candidates are produced lazily, so a
// caller that stops at the first good region never pays for the sweep.
package locate

import (
	"fmt"
	"iter"

	"github.com/jackzampolin/archivist/internal/chunk"
)

// Config holds window sizes for the default strategy chain.
type Config struct {
	WindowBefore int
	WindowAfter  int
	SweepSize    int
	SweepOverlap int
}

// DefaultConfig returns the default windows.
func DefaultConfig() Config {
	return Config{
		WindowBefore: DefaultWindowBefore,
		WindowAfter:  DefaultWindowAfter,
		SweepSize:    DefaultSweepSize,
		SweepOverlap: DefaultSweepOverlap,
	}
}

// Locator yields candidates from its strategies in order.
type Locator struct {
	strategies []Strategy
}

// New builds the default page-anchor, title-scan, sweep chain.
func New(cfg Config) (*Locator, error) {
	if cfg.WindowBefore < 0 || cfg.WindowAfter <= 0 {
		return nil, fmt.Errorf("%w: window before=%d after=%d", chunk.ErrInvalidConfiguration, cfg.WindowBefore, cfg.WindowAfter)
	}
	splitter, err := chunk.New(chunk.UnitLines, cfg.SweepSize, cfg.SweepOverlap)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	w := Window{Before: cfg.WindowBefore, After: cfg.WindowAfter}
	return NewWithStrategies(
		PageAnchor{Window: w},
		TitleScan{Window: w},
		Sweep{Splitter: splitter},
	), nil
}

// NewWithStrategies builds a locator over an explicit strategy list.
func NewWithStrategies(strategies ...Strategy) *Locator {
	return &Locator{strategies: strategies}
}

// Strategies returns the configured strategy kinds in order.
func (l *Locator) Strategies() []StrategyKind {
	kinds := make([]StrategyKind, len(l.strategies))
	for i, s := range l.strategies {
		kinds[i] = s.Kind()
	}
	return kinds
}

// Locate yields every candidate for target, strategy by strategy.
func (l *Locator) Locate(doc *Document, target Target) iter.Seq[Region] {
	return func(yield func(Region) bool) {
		for _, s := range l.strategies {
			for r := range s.Candidates(doc, target) {
				if !yield(r) {
					return
				}
			}
		}
	}
}
