package dedup

import (
	"slices"
	"testing"

	"github.com/jackzampolin/archivist/internal/types"
)

func titles(records []types.ArticleRecord) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Title+"/"+r.Text)
	}
	return out
}

func TestRecords(t *testing.T) {
	in := []types.ArticleRecord{
		{Title: "On Emptiness", Text: "1"},
		{Title: "KARMA", Text: "2"},
		{Title: "On  Emptiness!", Text: "3"},
		{Title: "Karma", Text: "4"},
		{Title: "", Text: "5"},
		{Title: "?!", Text: "6"},
		{Title: "Rebirth", Text: "7"},
	}

	got := Records(in)
	want := []string{"On Emptiness/1", "KARMA/2", "/5", "Rebirth/7"}
	if !slices.Equal(titles(got), want) {
		t.Errorf("Records() = %v, want %v", titles(got), want)
	}

	if again := Records(got); !slices.Equal(titles(again), titles(got)) {
		t.Error("Records should be idempotent")
	}
}

func TestRecords_Empty(t *testing.T) {
	if got := Records(nil); len(got) != 0 {
		t.Errorf("Records(nil) = %v", got)
	}
}

func TestKey(t *testing.T) {
	if Key("The Sūtra, Re-read") != Key("the sūtra reread") {
		t.Error("keys should match after normalization")
	}
}
