package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/jackzampolin/archivist/internal/checkpoint"
	"github.com/jackzampolin/archivist/internal/oracle"
	"github.com/jackzampolin/archivist/internal/types"
)

func enrichFixture() []types.ArticleRecord {
	return []types.ArticleRecord{
		types.NewRecord(types.TOCEntry{Title: "Karma", Authors: []string{"Ann Smith"}}, "Karma is action. It has results. More text."),
		types.NewRecord(types.TOCEntry{Title: "Rebirth", Authors: []string{"Bo Jones"}}, "Rebirth follows. Then again. And again."),
		types.NewRecord(types.TOCEntry{Title: "Emptiness"}, "All is empty. Even this."),
	}
}

func newTestEnricher(o oracle.Enricher, dest string, sl *sleepLog) *Enricher {
	cfg := testConfig()
	return &Enricher{
		Oracle:     o,
		Checkpoint: checkpoint.New(dest, nil),
		Config:     cfg,
		Pacer:      NewPacer(cfg.Delay, cfg.DelayJitter, sl.sleep),
		Sleep:      sl.sleep,
	}
}

func TestEnricher_FallbackOnFailure(t *testing.T) {
	stub := &stubOracle{enrich: func(n int, rec types.ArticleRecord) (oracle.Metadata, error) {
		if rec.Title == "Rebirth" {
			return oracle.Metadata{}, unavailableErr
		}
		return oracle.Metadata{Abstract: "About " + rec.Title + ".", Tags: []string{"Buddhism", "buddhism", rec.Title}}, nil
	}}
	dest := destPath(t)
	res, err := newTestEnricher(stub, dest, &sleepLog{}).Run(context.Background(), enrichFixture())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Enriched != 2 || res.Fallbacks != 1 {
		t.Errorf("result = %+v", res)
	}

	saved, _ := checkpoint.New(dest, nil).Load()
	if len(saved) != 3 {
		t.Fatalf("checkpoint has %d records", len(saved))
	}
	if saved[0].Abstract != "About Karma." || !slices.Equal(saved[0].Tags, []string{"Buddhism", "Karma"}) {
		t.Errorf("record 0 = %+v", saved[0])
	}
	if saved[1].Abstract != "Rebirth follows. Then again." || !slices.Equal(saved[1].Tags, []string{"Jones"}) {
		t.Errorf("fallback record = %+v", saved[1])
	}
}

func TestEnricher_SkipsEnrichedRecords(t *testing.T) {
	records := enrichFixture()
	records[0].Abstract = "Already done."
	stub := &stubOracle{enrich: func(int, types.ArticleRecord) (oracle.Metadata, error) {
		return oracle.Metadata{Abstract: "New."}, nil
	}}
	res, err := newTestEnricher(stub, destPath(t), &sleepLog{}).Run(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 || !slices.Equal(stub.enriched, []string{"Rebirth", "Emptiness"}) {
		t.Errorf("skipped %d, enriched %v", res.Skipped, stub.enriched)
	}
	if res.Records[0].Abstract != "Already done." {
		t.Error("existing abstract was overwritten")
	}
}

func TestEnricher_QuotaHalt(t *testing.T) {
	stub := &stubOracle{enrich: func(_ int, rec types.ArticleRecord) (oracle.Metadata, error) {
		if rec.Title == "Rebirth" {
			return oracle.Metadata{}, quotaErr
		}
		return oracle.Metadata{Abstract: "Done."}, nil
	}}
	dest := destPath(t)
	_, err := newTestEnricher(stub, dest, &sleepLog{}).Run(context.Background(), enrichFixture())

	var halt *HaltError
	if !errors.As(err, &halt) || halt.Stage != StageEnrich || halt.RemainingRecords != 2 {
		t.Fatalf("Run() error = %v (%+v)", err, halt)
	}
	if !slices.Equal(stub.enriched, []string{"Karma", "Rebirth", "Rebirth"}) {
		t.Errorf("enrich calls = %v", stub.enriched)
	}

	ckpt := checkpoint.New(dest, nil)
	saved, _ := ckpt.Load()
	if len(saved) != 3 || saved[0].Abstract != "Done." || saved[1].Abstract != "" {
		t.Errorf("checkpoint = %+v", saved)
	}
	rem, _ := ckpt.LoadRemaining()
	if got := titlesOf(rem.Records); !slices.Equal(got, []string{"Rebirth", "Emptiness"}) {
		t.Errorf("remaining records = %v", got)
	}
}

func TestEnrichStage_ResumesFromSeparateOutput(t *testing.T) {
	var records []types.ArticleRecord
	for _, title := range natoTitles[:4] {
		records = append(records, types.NewRecord(types.TOCEntry{Title: title}, longText(title)))
	}
	src := checkpoint.New(destPath(t), nil)
	if err := src.Persist(records, checkpoint.Remaining{}); err != nil {
		t.Fatal(err)
	}

	// A previous run enriched the first three before stopping.
	out := checkpoint.New(destPath(t), nil)
	partial := slices.Clone(records)
	for i := range partial[:3] {
		partial[i].Abstract = "Earlier " + partial[i].Title + "."
	}
	if err := out.Persist(partial, checkpoint.Remaining{Reason: "interrupted", Records: partial[3:]}); err != nil {
		t.Fatal(err)
	}

	stub := &stubOracle{enrich: func(_ int, rec types.ArticleRecord) (oracle.Metadata, error) {
		return oracle.Metadata{Abstract: "Fresh " + rec.Title + "."}, nil
	}}
	stage := &EnrichStage{
		Enricher: newTestEnricher(stub, out.Path(), &sleepLog{}),
		Source:   src,
	}

	sum, err := stage.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !slices.Equal(stub.enriched, []string{"Delta"}) {
		t.Errorf("enrich calls = %v, want [Delta]", stub.enriched)
	}
	if sum.Records != 4 {
		t.Errorf("Records = %d, want 4", sum.Records)
	}

	saved, err := out.Load()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Earlier Alpha.", "Earlier Bravo.", "Earlier Charlie.", "Fresh Delta."}
	var got []string
	for _, r := range saved {
		got = append(got, r.Abstract)
	}
	if !slices.Equal(got, want) {
		t.Errorf("abstracts = %v, want %v", got, want)
	}
	if rem, _ := out.LoadRemaining(); !rem.Empty() {
		t.Errorf("remaining sidecar left behind: %+v", rem)
	}
}
