package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/archivist/internal/checkpoint"
	"github.com/jackzampolin/archivist/internal/locate"
	"github.com/jackzampolin/archivist/internal/oracle"
	"github.com/jackzampolin/archivist/internal/types"
)

var (
	quotaErr       = &oracle.Error{Kind: oracle.KindQuotaExhausted, Err: errors.New("429 too many requests")}
	unavailableErr = &oracle.Error{Kind: oracle.KindUnavailable, Attempts: 5, Err: errors.New("503")}
)

// longText is comfortably above the default minimum length.
func longText(title string) string {
	return fmt.Sprintf("%s body. %s", title, strings.Repeat("Lorem ipsum dolor sit amet. ", 4))
}

// stubOracle scripts the oracle by handler functions and records calls.
type stubOracle struct {
	mu       sync.Mutex
	requests []oracle.Request
	enriched []string
	chunks   []string

	extract func(n int, req oracle.Request) (oracle.ExtractionResult, error)
	enrich  func(n int, rec types.ArticleRecord) (oracle.Metadata, error)
	scan    func(n int, text string) ([]types.ArticleRecord, error)
}

func (s *stubOracle) Extract(ctx context.Context, req oracle.Request) (oracle.ExtractionResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	n := len(s.requests)
	s.mu.Unlock()
	return s.extract(n, req)
}

func (s *stubOracle) Enrich(ctx context.Context, rec types.ArticleRecord) (oracle.Metadata, error) {
	s.mu.Lock()
	s.enriched = append(s.enriched, rec.Title)
	n := len(s.enriched)
	s.mu.Unlock()
	return s.enrich(n, rec)
}

func (s *stubOracle) ExtractArticles(ctx context.Context, text string) ([]types.ArticleRecord, error) {
	s.mu.Lock()
	s.chunks = append(s.chunks, text)
	n := len(s.chunks)
	s.mu.Unlock()
	return s.scan(n, text)
}

func (s *stubOracle) titlesRequested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.requests {
		out = append(out, r.Entry.Title)
	}
	return out
}

// sleepLog records requested sleeps without waiting.
type sleepLog struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (l *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sleeps = append(l.sleeps, d)
	return ctx.Err()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DelayJitter = 0
	return cfg
}

func newTestMatcher(t *testing.T, o oracle.Oracle, dest string, sl *sleepLog) *Matcher {
	t.Helper()
	loc, err := locate.New(locate.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	return &Matcher{
		Locator:    loc,
		Oracle:     o,
		Checkpoint: checkpoint.New(dest, nil),
		Config:     cfg,
		Pacer:      NewPacer(cfg.Delay, cfg.DelayJitter, sl.sleep),
		Sleep:      sl.sleep,
	}
}

func destPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "articles.json")
}

var natoTitles = []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel", "India", "Juliett"}

// natoFixture builds a document with each title on its own line and a TOC
// in the same order.
func natoFixture() (*locate.Document, []types.TOCEntry) {
	var lines []string
	var toc []types.TOCEntry
	for _, title := range natoTitles {
		lines = append(lines, strings.ToUpper(title), "filler one", "filler two")
		toc = append(toc, types.TOCEntry{Title: title, Authors: []string{"Author " + title}})
	}
	return locate.NewDocumentFromLines(lines), toc
}

func titlesOf(records []types.ArticleRecord) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Title)
	}
	return out
}
