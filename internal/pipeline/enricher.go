package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackzampolin/archivist/internal/checkpoint"
	"github.com/jackzampolin/archivist/internal/oracle"
	"github.com/jackzampolin/archivist/internal/types"
)

// StageEnrich is the enricher's stage name.
const StageEnrich = "enrich"

// Enricher fills Abstract and Tags on matched records. Records that already
// have an abstract are left alone so an interrupted pass can resume.
type Enricher struct {
	Oracle     oracle.Enricher
	Checkpoint *checkpoint.Checkpointer
	Config     Config
	Pacer      *Pacer
	Sleep      SleepFunc
	Logger     *slog.Logger
}

// EnrichResult is the outcome of an enrichment run.
type EnrichResult struct {
	Records   []types.ArticleRecord `json:"-" yaml:"-"`
	Enriched  int                   `json:"enriched" yaml:"enriched"`
	Fallbacks int                   `json:"fallbacks" yaml:"fallbacks"`
	Skipped   int                   `json:"skipped" yaml:"skipped"`
}

func (e *Enricher) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Run enriches records in order. The returned result is valid even when err
// is non-nil.
func (e *Enricher) Run(ctx context.Context, records []types.ArticleRecord) (*EnrichResult, error) {
	cfg := e.Config
	pacer := e.Pacer
	if pacer == nil {
		pacer = NewPacer(cfg.Delay, cfg.DelayJitter, nil)
	}
	sleep := e.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	g := &guard{pacer: pacer, cooldown: cfg.Cooldown, sleep: sleep, logger: e.logger()}

	out := append([]types.ArticleRecord(nil), records...)
	result := &EnrichResult{Records: out}

	pending := func(i int) []types.ArticleRecord {
		var rest []types.ArticleRecord
		for _, r := range out[i:] {
			if r.Abstract == "" {
				rest = append(rest, r)
			}
		}
		return rest
	}
	persist := func(i int, reason string) error {
		return e.Checkpoint.Persist(out, checkpoint.Remaining{Reason: reason, Records: pending(i)})
	}

	sinceCheckpoint := 0
	for i := range out {
		rec := &out[i]
		if rec.Abstract != "" {
			result.Skipped++
			continue
		}

		var md oracle.Metadata
		err := g.do(ctx, func(reason string) error { return persist(i, reason) }, func(ctx context.Context) error {
			var err error
			md, err = e.Oracle.Enrich(ctx, *rec)
			return err
		})
		if err != nil {
			if isFatal(ctx, err) {
				return result, e.stop(err, out, pending(i))
			}
			e.logger().Warn("enrichment failed, using fallback", "title", rec.Title, "kind", oracle.KindOf(err), "error", err)
			md = oracle.FallbackMetadata(*rec)
			result.Fallbacks++
		} else {
			result.Enriched++
		}

		rec.Abstract = md.Abstract
		rec.Tags = oracle.NormalizeTags(append(rec.Tags, md.Tags...), 0)
		e.logger().Info("article enriched", "index", i, "title", rec.Title, "tags", len(rec.Tags))

		sinceCheckpoint++
		if sinceCheckpoint >= cfg.CheckpointEvery {
			sinceCheckpoint = 0
			if err := persist(i+1, "in progress"); err != nil {
				return result, err
			}
		}
	}

	if err := e.Checkpoint.Persist(out, checkpoint.Remaining{}); err != nil {
		return result, err
	}
	return result, nil
}

func (e *Enricher) stop(err error, records, remaining []types.ArticleRecord) error {
	reason := "interrupted"
	var halt *HaltError
	if errors.As(err, &halt) {
		reason = "quota exhausted"
		halt.Stage = StageEnrich
		halt.RemainingRecords = len(remaining)
		halt.Checkpoint = e.Checkpoint.Path()
	}
	if perr := e.Checkpoint.Persist(records, checkpoint.Remaining{Reason: reason, Records: remaining}); perr != nil {
		e.logger().Error("failed to persist checkpoint", "error", perr)
	}
	return err
}
