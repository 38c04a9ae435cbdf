package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/jackzampolin/archivist/internal/checkpoint"
	"github.com/jackzampolin/archivist/internal/chunk"
	"github.com/jackzampolin/archivist/internal/dedup"
	"github.com/jackzampolin/archivist/internal/oracle"
	"github.com/jackzampolin/archivist/internal/types"
)

// StageScan is the scanner's stage name.
const StageScan = "scan"

// Default scan windows, in runes.
const (
	DefaultScanChunkSize    = 1000
	DefaultScanChunkOverlap = 500
)

// Scanner is the TOC-free variant: it walks the whole text in overlapping
// character chunks and keeps every article the oracle reports. Progress is
// persisted after each chunk that produced records; duplicates from the
// overlap are removed at the end.
type Scanner struct {
	Oracle     oracle.Scanner
	Splitter   chunk.Splitter
	Checkpoint *checkpoint.Checkpointer
	Config     Config
	Pacer      *Pacer
	Sleep      SleepFunc
	Logger     *slog.Logger

	// StartChunk skips chunks before it, for resuming an interrupted scan.
	StartChunk int
}

// ScanResult is the outcome of a scan.
type ScanResult struct {
	Records    []types.ArticleRecord `json:"-" yaml:"-"`
	Chunks     int                   `json:"chunks" yaml:"chunks"`
	Failed     int                   `json:"failed_chunks" yaml:"failed_chunks"`
	Found      int                   `json:"found" yaml:"found"`
	Short      int                   `json:"rejected_short" yaml:"rejected_short"`
	Duplicates int                   `json:"duplicates" yaml:"duplicates"`
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Run scans text, appending to prior records. The returned result is valid
// even when err is non-nil.
func (s *Scanner) Run(ctx context.Context, text string, prior []types.ArticleRecord) (*ScanResult, error) {
	cfg := s.Config
	pacer := s.Pacer
	if pacer == nil {
		pacer = NewPacer(cfg.Delay, cfg.DelayJitter, nil)
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	g := &guard{pacer: pacer, cooldown: cfg.Cooldown, sleep: sleep, logger: s.logger()}

	result := &ScanResult{Records: append([]types.ArticleRecord(nil), prior...)}
	total := s.Splitter.Count(utf8.RuneCountInString(text))
	persist := func(next int, reason string) error {
		return s.Checkpoint.Persist(result.Records, checkpoint.Remaining{Reason: reason, Chunk: &next})
	}

	for c := range s.Splitter.Split(text) {
		if c.Index < s.StartChunk {
			continue
		}
		result.Chunks++

		var found []types.ArticleRecord
		err := g.do(ctx, func(reason string) error { return persist(c.Index, reason) }, func(ctx context.Context) error {
			var err error
			found, err = s.Oracle.ExtractArticles(ctx, c.Text)
			return err
		})
		if err != nil {
			if isFatal(ctx, err) {
				return result, s.stop(err, result, c.Index)
			}
			result.Failed++
			s.logger().Warn("chunk abandoned", "chunk", c.Index, "of", total, "kind", oracle.KindOf(err), "error", err)
			continue
		}

		kept := 0
		for _, rec := range found {
			if utf8.RuneCountInString(rec.Text) < cfg.MinLength {
				result.Short++
				continue
			}
			result.Records = append(result.Records, rec)
			kept++
		}
		result.Found += kept
		s.logger().Info("chunk scanned", "chunk", c.Index+1, "of", total, "articles", kept)

		if kept > 0 {
			if err := persist(c.Index+1, "in progress"); err != nil {
				return result, err
			}
		}
	}

	before := len(result.Records)
	result.Records = dedup.Records(result.Records)
	result.Duplicates = before - len(result.Records)

	if err := s.Checkpoint.Persist(result.Records, checkpoint.Remaining{}); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Scanner) stop(err error, result *ScanResult, next int) error {
	reason := "interrupted"
	var halt *HaltError
	if errors.As(err, &halt) {
		reason = "quota exhausted"
		halt.Stage = StageScan
		halt.Checkpoint = s.Checkpoint.Path()
	}
	if perr := s.Checkpoint.Persist(result.Records, checkpoint.Remaining{Reason: reason, Chunk: &next}); perr != nil {
		s.logger().Error("failed to persist checkpoint", "error", perr)
	}
	return err
}
