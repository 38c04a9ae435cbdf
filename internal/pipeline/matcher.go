package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/jackzampolin/archivist/internal/checkpoint"
	"github.com/jackzampolin/archivist/internal/dedup"
	"github.com/jackzampolin/archivist/internal/locate"
	"github.com/jackzampolin/archivist/internal/oracle"
	"github.com/jackzampolin/archivist/internal/types"
)

// StageMatch is the matcher's stage name.
const StageMatch = "match"

// Matcher finds each TOC entry in a document: it walks the locator's
// candidates in order and stops at the first region the oracle extracts a
// long enough article from.
type Matcher struct {
	Locator    *locate.Locator
	Oracle     oracle.Oracle
	Checkpoint *checkpoint.Checkpointer
	Config     Config
	Pacer      *Pacer

	// Sleep is used for the quota cooldown. Nil uses Sleep.
	Sleep SleepFunc

	// OnState, when set, observes every entry state transition.
	OnState func(EntryState)

	Logger *slog.Logger
}

// MatchResult is the outcome of a matcher run.
type MatchResult struct {
	Records  []types.ArticleRecord `json:"-" yaml:"-"`
	Matched  int                   `json:"matched" yaml:"matched"`
	Skipped  int                   `json:"skipped" yaml:"skipped"`
	NotFound []string              `json:"not_found" yaml:"not_found"`
	States   []EntryState          `json:"-" yaml:"-"`
}

func (m *Matcher) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *Matcher) transition(s *EntryState, phase Phase) {
	s.Phase = phase
	m.logger().Debug("entry state", "index", s.Index, "title", s.Title, "phase", phase, "strategy", s.Strategy, "candidate", s.Candidate)
	if m.OnState != nil {
		m.OnState(*s)
	}
}

// Run matches every entry of toc not already present in prior. Prior
// records are kept and written back first. The returned result is valid
// even when err is non-nil.
func (m *Matcher) Run(ctx context.Context, doc *locate.Document, toc []types.TOCEntry, prior []types.ArticleRecord) (*MatchResult, error) {
	cfg := m.Config
	pacer := m.Pacer
	if pacer == nil {
		pacer = NewPacer(cfg.Delay, cfg.DelayJitter, nil)
	}
	sleep := m.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	g := &guard{pacer: pacer, cooldown: cfg.Cooldown, sleep: sleep, logger: m.logger()}

	result := &MatchResult{
		Records:  append([]types.ArticleRecord(nil), prior...),
		NotFound: []string{},
	}
	done := make(map[string]bool, len(prior))
	for _, r := range prior {
		done[dedup.Key(r.Title)] = true
	}

	// remaining lists unmatched entries from i on, skipping those already
	// matched or given up on.
	exhausted := make(map[int]bool)
	remaining := func(i int) []types.TOCEntry {
		var out []types.TOCEntry
		for j := i; j < len(toc); j++ {
			if !done[dedup.Key(toc[j].Title)] && !exhausted[j] {
				out = append(out, toc[j])
			}
		}
		return out
	}
	persist := func(i int, reason string) error {
		return m.Checkpoint.Persist(result.Records, checkpoint.Remaining{Reason: reason, Entries: remaining(i)})
	}

	sinceCheckpoint := 0
	for i, entry := range toc {
		if done[dedup.Key(entry.Title)] {
			result.Skipped++
			continue
		}

		state := EntryState{Index: i, Title: entry.Title}
		m.transition(&state, PhasePending)

		text, err := m.matchEntry(ctx, g, doc, toc, i, &state, func(reason string) error { return persist(i, reason) })
		if err != nil {
			result.States = append(result.States, state)
			return result, m.stop(err, result, remaining(i))
		}

		if text == "" {
			exhausted[i] = true
			result.NotFound = append(result.NotFound, entry.Title)
			m.transition(&state, PhaseExhausted)
			result.States = append(result.States, state)
			m.logger().Info("article not found", "index", i, "title", entry.Title, "calls", state.Calls)
			continue
		}

		result.Records = append(result.Records, types.NewRecord(entry, text))
		result.Matched++
		done[dedup.Key(entry.Title)] = true
		m.transition(&state, PhaseMatched)
		result.States = append(result.States, state)
		m.logger().Info("article matched",
			"index", i,
			"title", entry.Title,
			"strategy", state.Strategy,
			"candidate", state.Candidate,
			"runes", utf8.RuneCountInString(text))

		sinceCheckpoint++
		if sinceCheckpoint >= cfg.CheckpointEvery {
			sinceCheckpoint = 0
			if err := persist(i+1, "in progress"); err != nil {
				return result, err
			}
		}
	}
	if err := m.Checkpoint.Persist(result.Records, checkpoint.Remaining{}); err != nil {
		return result, err
	}
	if err := m.Checkpoint.WriteNotFound(result.NotFound); err != nil {
		return result, err
	}
	return result, nil
}

// matchEntry returns the extracted text, or "" when every candidate was
// tried without a qualifying match.
func (m *Matcher) matchEntry(ctx context.Context, g *guard, doc *locate.Document, toc []types.TOCEntry, i int, state *EntryState, persist func(string) error) (string, error) {
	entry := toc[i]
	target := locate.Target{Title: entry.Title, Authors: entry.Authors, Page: entry.Page}
	next := types.NextTitle(toc, i)

	for region := range m.Locator.Locate(doc, target) {
		state.Strategy = region.Strategy
		state.Candidate = region.Index
		m.transition(state, PhaseSearching)

		var res oracle.ExtractionResult
		err := g.do(ctx, persist, func(ctx context.Context) error {
			state.Calls++
			var err error
			res, err = m.Oracle.Extract(ctx, oracle.Request{Entry: entry, NextTitle: next, Region: region})
			return err
		})
		if err != nil {
			if isFatal(ctx, err) {
				return "", err
			}
			m.logger().Warn("candidate abandoned",
				"title", entry.Title,
				"strategy", region.Strategy,
				"candidate", region.Index,
				"kind", oracle.KindOf(err),
				"error", err)
			continue
		}

		if !res.Found {
			continue
		}
		if n := utf8.RuneCountInString(res.ArticleText); n < m.Config.MinLength {
			m.logger().Debug("match rejected as too short",
				"title", entry.Title,
				"strategy", region.Strategy,
				"candidate", region.Index,
				"runes", n,
				"min_length", m.Config.MinLength)
			continue
		}
		return res.ArticleText, nil
	}
	return "", nil
}

// stop persists progress after a fatal error and completes a HaltError.
func (m *Matcher) stop(err error, result *MatchResult, remaining []types.TOCEntry) error {
	reason := "interrupted"
	var halt *HaltError
	if errors.As(err, &halt) {
		reason = "quota exhausted"
		halt.Stage = StageMatch
		halt.Remaining = remaining
		halt.Checkpoint = m.Checkpoint.Path()
	}
	if perr := m.Checkpoint.Persist(result.Records, checkpoint.Remaining{Reason: reason, Entries: remaining}); perr != nil {
		m.logger().Error("failed to persist checkpoint", "error", perr)
	}
	if perr := m.Checkpoint.WriteNotFound(result.NotFound); perr != nil {
		m.logger().Error("failed to write not found list", "error", perr)
	}
	return err
}

// isFatal reports whether err must end the run rather than the candidate.
func isFatal(ctx context.Context, err error) bool {
	var halt *HaltError
	return errors.As(err, &halt) || errors.Is(err, ErrCheckpoint) || ctx.Err() != nil ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Remaining returns the entries of toc not present in records, compared by
// normalized title, in TOC order.
func Remaining(toc []types.TOCEntry, records []types.ArticleRecord) []types.TOCEntry {
	done := make(map[string]bool, len(records))
	for _, r := range records {
		done[dedup.Key(r.Title)] = true
	}
	var out []types.TOCEntry
	for _, e := range toc {
		if !done[dedup.Key(e.Title)] {
			out = append(out, e)
		}
	}
	return out
}
