package checkpoint

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/archivist/internal/types"
)

func intPtr(i int) *int { return &i }

func sampleRecords() []types.ArticleRecord {
	return []types.ArticleRecord{
		types.NewRecord(types.TOCEntry{Title: "Karma", Authors: []string{"A"}, Volume: intPtr(3), Page: intPtr(12)}, "body one"),
		types.NewRecord(types.TOCEntry{Title: "Rebirth"}, "body two"),
	}
}

func TestPersist_Idempotent(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "articles.json")
	c := New(dest, nil)
	remaining := Remaining{Reason: "quota", Entries: []types.TOCEntry{{Title: "Next"}}}

	if err := c.Persist(sampleRecords(), remaining); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	first, _ := os.ReadFile(dest)
	firstSidecar, _ := os.ReadFile(c.RemainingPath())

	if err := c.Persist(sampleRecords(), remaining); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	second, _ := os.ReadFile(dest)
	secondSidecar, _ := os.ReadFile(c.RemainingPath())

	if !bytes.Equal(first, second) || !bytes.Equal(firstSidecar, secondSidecar) {
		t.Error("repeated Persist should produce byte-identical files")
	}
	if !bytes.HasSuffix(first, []byte("]\n")) || !strings.Contains(string(first), "\n  {\n    \"Title\": \"Karma\"") {
		t.Errorf("unexpected layout:\n%s", first)
	}
}

func TestPersist_RoundTripAndSidecarRemoval(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "articles.json"), nil)
	if err := c.Persist(sampleRecords(), Remaining{Entries: []types.TOCEntry{{Title: "Next"}}}); err != nil {
		t.Fatal(err)
	}

	records, err := c.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 || records[0].Title != "Karma" || *records[0].Page != 12 {
		t.Errorf("Load() = %+v", records)
	}
	rem, err := c.LoadRemaining()
	if err != nil || len(rem.Entries) != 1 || rem.Entries[0].Title != "Next" {
		t.Errorf("LoadRemaining() = %+v, %v", rem, err)
	}

	if err := c.Persist(records, Remaining{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(c.RemainingPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("sidecar should be removed once nothing remains, stat error = %v", err)
	}
	if rem, _ := c.LoadRemaining(); !rem.Empty() {
		t.Errorf("LoadRemaining() after completion = %+v", rem)
	}
}

func TestPersist_EmptyRecords(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "articles.json"), nil)
	if err := c.Persist(nil, Remaining{}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(c.Path())
	if string(data) != "[]\n" {
		t.Errorf("empty checkpoint = %q, want %q", data, "[]\n")
	}
}

func TestLoad_Missing(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope.json"), nil)
	records, err := c.Load()
	if err != nil || len(records) != 0 {
		t.Errorf("Load() = %v, %v", records, err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "articles.json")
	if err := os.WriteFile(dest, []byte("[{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dest, nil).Load(); err == nil {
		t.Error("expected decode error")
	}
}

func TestWriteNotFound(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "articles.json"), nil)
	if err := c.WriteNotFound([]string{"Lost", "Missing"}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(c.NotFoundPath())
	if string(data) != "[\n  \"Lost\",\n  \"Missing\"\n]\n" {
		t.Errorf("not_found file = %q", data)
	}
}
