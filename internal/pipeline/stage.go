package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/jackzampolin/archivist/internal/checkpoint"
	"github.com/jackzampolin/archivist/internal/dedup"
	"github.com/jackzampolin/archivist/internal/locate"
	"github.com/jackzampolin/archivist/internal/types"
)

// Stage is the interface that all pipeline stages must implement.
type Stage interface {
	// Identity
	Name() string           // e.g., "match", "enrich"
	Dependencies() []string // Stages that must complete first

	Description() string

	// Run executes the stage. The summary is returned even on error.
	Run(ctx context.Context) (*Summary, error)
}

// Summary reports what a stage did.
type Summary struct {
	Stage     string        `json:"stage" yaml:"stage"`
	Output    string        `json:"output" yaml:"output"`
	Records   int           `json:"records" yaml:"records"`
	Remaining int           `json:"remaining" yaml:"remaining"`
	NotFound  []string      `json:"not_found,omitempty" yaml:"not_found,omitempty"`
	Halted    bool          `json:"halted" yaml:"halted"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Details   any           `json:"details,omitempty" yaml:"details,omitempty"`
}

func (s *Summary) finish(start time.Time, err error) {
	s.Duration = time.Since(start).Round(time.Millisecond)
	if err == nil {
		return
	}
	s.Error = err.Error()
	var halt *HaltError
	if errors.As(err, &halt) {
		s.Halted = true
	}
}

// MatchStage runs the matcher over a document.
type MatchStage struct {
	Matcher  *Matcher
	Document *locate.Document
	TOC      []types.TOCEntry

	// Resume loads the existing checkpoint and skips entries already in it.
	Resume bool
}

func (s *MatchStage) Name() string           { return StageMatch }
func (s *MatchStage) Dependencies() []string { return nil }
func (s *MatchStage) Description() string {
	return "Locate each table of contents entry in the source and extract its text"
}

func (s *MatchStage) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{Stage: StageMatch, Output: s.Matcher.Checkpoint.Path()}

	var prior []types.ArticleRecord
	if s.Resume {
		var err error
		if prior, err = s.Matcher.Checkpoint.Load(); err != nil {
			sum.finish(start, err)
			return sum, err
		}
	}

	res, err := s.Matcher.Run(ctx, s.Document, s.TOC, prior)
	sum.Records = len(res.Records)
	sum.NotFound = res.NotFound
	sum.Remaining = len(Remaining(s.TOC, res.Records)) - len(res.NotFound)
	sum.Details = res
	sum.finish(start, err)
	return sum, err
}

// EnrichStage enriches the records found at Source and writes them through
// the enricher's checkpointer. Source may be the same file. When it is not,
// records already enriched in the output are carried over by normalized
// title so a rerun only asks for the rest.
type EnrichStage struct {
	Enricher *Enricher
	Source   *checkpoint.Checkpointer
	Deps     []string
}

func (s *EnrichStage) Name() string           { return StageEnrich }
func (s *EnrichStage) Dependencies() []string { return s.Deps }
func (s *EnrichStage) Description() string {
	return "Add an abstract and topical tags to every matched article"
}

func (s *EnrichStage) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{Stage: StageEnrich, Output: s.Enricher.Checkpoint.Path()}

	records, err := s.Source.Load()
	if err == nil && len(records) == 0 {
		err = fmt.Errorf("no records to enrich in %s", s.Source.Path())
	}
	if err == nil && filepath.Clean(s.Source.Path()) != filepath.Clean(s.Enricher.Checkpoint.Path()) {
		var done []types.ArticleRecord
		if done, err = s.Enricher.Checkpoint.Load(); err == nil {
			records = carryEnriched(records, done)
		}
	}
	if err != nil {
		sum.finish(start, err)
		return sum, err
	}

	res, err := s.Enricher.Run(ctx, records)
	sum.Records = len(res.Records)
	var halt *HaltError
	if errors.As(err, &halt) {
		sum.Remaining = halt.RemainingRecords
	}
	sum.Details = res
	sum.finish(start, err)
	return sum, err
}

// carryEnriched replaces each record in records with its enriched copy from
// done, matched by normalized title. Order follows records.
func carryEnriched(records, done []types.ArticleRecord) []types.ArticleRecord {
	enriched := make(map[string]types.ArticleRecord, len(done))
	for _, r := range done {
		if r.Abstract == "" {
			continue
		}
		if _, ok := enriched[dedup.Key(r.Title)]; !ok {
			enriched[dedup.Key(r.Title)] = r
		}
	}
	if len(enriched) == 0 {
		return records
	}
	out := make([]types.ArticleRecord, len(records))
	for i, r := range records {
		if e, ok := enriched[dedup.Key(r.Title)]; ok && r.Abstract == "" {
			r = e
		}
		out[i] = r
	}
	return out
}

// ScanStage runs the whole-document scan.
type ScanStage struct {
	Scanner *Scanner
	Text    string

	// Resume continues from the checkpoint's next chunk.
	Resume bool
}

func (s *ScanStage) Name() string           { return StageScan }
func (s *ScanStage) Dependencies() []string { return nil }
func (s *ScanStage) Description() string {
	return "Split the whole source into articles without a table of contents"
}

func (s *ScanStage) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{Stage: StageScan, Output: s.Scanner.Checkpoint.Path()}

	var prior []types.ArticleRecord
	if s.Resume {
		rem, err := s.Scanner.Checkpoint.LoadRemaining()
		if err == nil {
			prior, err = s.Scanner.Checkpoint.Load()
		}
		if err != nil {
			sum.finish(start, err)
			return sum, err
		}
		if rem.Chunk != nil {
			s.Scanner.StartChunk = *rem.Chunk
		}
	}

	res, err := s.Scanner.Run(ctx, s.Text, prior)
	sum.Records = len(res.Records)
	if err != nil {
		sum.Remaining = s.Scanner.Splitter.Count(utf8.RuneCountInString(s.Text)) - s.Scanner.StartChunk - res.Chunks + 1
	}
	sum.Details = res
	sum.finish(start, err)
	return sum, err
}
