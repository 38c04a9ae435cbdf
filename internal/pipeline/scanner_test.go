package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/archivist/internal/checkpoint"
	"github.com/jackzampolin/archivist/internal/chunk"
	"github.com/jackzampolin/archivist/internal/oracle"
	"github.com/jackzampolin/archivist/internal/types"
)

func newTestScanner(t *testing.T, o oracle.Scanner, dest string) *Scanner {
	t.Helper()
	splitter, err := chunk.New(chunk.UnitRunes, 1000, 500)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	sl := &sleepLog{}
	return &Scanner{
		Oracle:     o,
		Splitter:   splitter,
		Checkpoint: checkpoint.New(dest, nil),
		Config:     cfg,
		Pacer:      NewPacer(cfg.Delay, cfg.DelayJitter, sl.sleep),
		Sleep:      sl.sleep,
	}
}

func article(title, text string) types.ArticleRecord {
	return types.NewRecord(types.TOCEntry{Title: title}, text)
}

func TestScanner_Run(t *testing.T) {
	text := strings.Repeat("x", 2500) // four chunks

	stub := &stubOracle{scan: func(n int, _ string) ([]types.ArticleRecord, error) {
		switch n {
		case 1:
			return []types.ArticleRecord{article("Karma", longText("karma"))}, nil
		case 2:
			return []types.ArticleRecord{article("KARMA", longText("karma again")), article("Rebirth", longText("rebirth"))}, nil
		case 3:
			return []types.ArticleRecord{article("Short", "tiny")}, nil
		}
		return nil, unavailableErr
	}}
	dest := destPath(t)
	res, err := newTestScanner(t, stub, dest).Run(context.Background(), text, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Chunks != 4 || res.Failed != 1 || res.Short != 1 || res.Duplicates != 1 {
		t.Errorf("result = %+v", res)
	}
	if got := titlesOf(res.Records); len(got) != 2 || got[0] != "Karma" || got[1] != "Rebirth" {
		t.Errorf("records = %v", got)
	}
	if len(stub.chunks[0]) != 1000 || len(stub.chunks[3]) != 1000 {
		t.Errorf("chunk sizes = %d, %d", len(stub.chunks[0]), len(stub.chunks[3]))
	}

	saved, _ := checkpoint.New(dest, nil).Load()
	if len(saved) != 2 {
		t.Errorf("checkpoint has %d records", len(saved))
	}
}

func TestScanner_QuotaHaltAndResume(t *testing.T) {
	text := strings.Repeat("y", 2500)
	dest := destPath(t)

	stub := &stubOracle{scan: func(n int, _ string) ([]types.ArticleRecord, error) {
		if n >= 2 {
			return nil, quotaErr
		}
		return []types.ArticleRecord{article("Karma", longText("karma"))}, nil
	}}
	_, err := newTestScanner(t, stub, dest).Run(context.Background(), text, nil)

	var halt *HaltError
	if !errors.As(err, &halt) || halt.Stage != StageScan {
		t.Fatalf("Run() error = %v", err)
	}
	rem, _ := checkpoint.New(dest, nil).LoadRemaining()
	if rem.Chunk == nil || *rem.Chunk != 1 {
		t.Fatalf("remaining = %+v, want next chunk 1", rem)
	}

	stub2 := &stubOracle{scan: func(n int, _ string) ([]types.ArticleRecord, error) {
		return []types.ArticleRecord{article("Rebirth", longText("rebirth"))}, nil
	}}
	stage := &ScanStage{Scanner: newTestScanner(t, stub2, dest), Text: text, Resume: true}
	sum, err := stage.Run(context.Background())
	if err != nil {
		t.Fatalf("resumed Run() error = %v", err)
	}
	if len(stub2.chunks) != 3 {
		t.Errorf("resumed scan processed %d chunks, want 3", len(stub2.chunks))
	}
	if sum.Records != 2 {
		t.Errorf("summary records = %d, want 2", sum.Records)
	}
}
