package types

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseTOC(t *testing.T) {
	input := `[
		{"name": "On Emptiness", "authors": ["A. Author"], "volume": 3, "years": "1971-1972", "page": 42},
		{"name": "Second Article", "authors": []}
	]`

	entries, err := ParseTOC(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTOC() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Title != "On Emptiness" {
		t.Errorf("Title = %q", entries[0].Title)
	}
	if entries[0].Page == nil || *entries[0].Page != 42 {
		t.Errorf("Page = %v, want 42", entries[0].Page)
	}
	if entries[1].Page != nil {
		t.Errorf("expected nil page hint for second entry, got %d", *entries[1].Page)
	}

	t.Run("rejects entry without name", func(t *testing.T) {
		if _, err := ParseTOC(strings.NewReader(`[{"authors": ["x"]}]`)); err == nil {
			t.Fatal("expected error for nameless entry")
		}
	})

	t.Run("rejects non-array", func(t *testing.T) {
		if _, err := ParseTOC(strings.NewReader(`{"name": "x"}`)); err == nil {
			t.Fatal("expected error for object input")
		}
	})
}

func TestLoadTOC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toc.json")
	if err := os.WriteFile(path, []byte(`[{"name":"A"},{"name":"B"},{"name":"C"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := LoadTOC(path)
	if err != nil {
		t.Fatalf("LoadTOC() error = %v", err)
	}
	if got := NextTitle(entries, 0); got != "B" {
		t.Errorf("NextTitle(0) = %q, want B", got)
	}
	if got := NextTitle(entries, 2); got != "" {
		t.Errorf("NextTitle(last) = %q, want empty", got)
	}

	if _, err := LoadTOC(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestArticleRecord_JSONKeys(t *testing.T) {
	page := 7
	rec := NewRecord(TOCEntry{Title: "T", Page: &page}, "body")
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"Title"`, `"Authors":[]`, `"Abstract"`, `"Text"`, `"Tags":[]`, `"Volume":null`, `"Years"`, `"Page":7`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("marshaled record %s missing %s", data, key)
		}
	}
}

func TestParseConfidenceLevel(t *testing.T) {
	if ParseConfidenceLevel("high") != ConfidenceHigh {
		t.Error("expected high")
	}
	if ParseConfidenceLevel("certain") != ConfidenceNone {
		t.Error("expected unknown values to map to none")
	}
}
