// Package oracle turns candidate regions into extraction results by asking
// an LLM. It owns prompt construction, reply parsing and validation, error
// classification and per-call retry. Quota exhaustion is surfaced to the
// caller untouched.
package oracle

import (
	"context"
	"strings"

	"github.com/jackzampolin/archivist/internal/locate"
	"github.com/jackzampolin/archivist/internal/types"
)

// Oracle extracts one article from one candidate region.
type Oracle interface {
	Extract(ctx context.Context, req Request) (ExtractionResult, error)
}

// Enricher produces an abstract and tags for a matched article.
type Enricher interface {
	Enrich(ctx context.Context, rec types.ArticleRecord) (Metadata, error)
}

// Scanner splits a text fragment into the articles it contains.
type Scanner interface {
	ExtractArticles(ctx context.Context, text string) ([]types.ArticleRecord, error)
}

// Request asks for entry within region.
type Request struct {
	Entry     types.TOCEntry
	NextTitle string
	Region    locate.Region
}

// ExtractionResult is the oracle's verdict for one region. Found=false is a
// valid answer, not an error.
type ExtractionResult struct {
	Found            bool                  `json:"found"`
	ArticleText      string                `json:"article_text"`
	Confidence       types.ConfidenceLevel `json:"confidence"`
	MatchedTitleForm string                `json:"matched_title_form,omitempty"`
	SearchNotes      string                `json:"search_notes,omitempty"`
}

// Metadata is the enrichment result.
type Metadata struct {
	Abstract string   `json:"abstract"`
	Tags     []string `json:"tags"`
}

// FallbackMetadata derives metadata without the oracle: the first two
// sentences of the text and the authors' surnames as tags.
func FallbackMetadata(rec types.ArticleRecord) Metadata {
	tags := make([]string, 0, len(rec.Authors))
	for _, a := range rec.Authors {
		fields := strings.Fields(a)
		if len(fields) == 0 {
			continue
		}
		tags = append(tags, strings.Trim(fields[len(fields)-1], ".,;"))
	}
	return Metadata{
		Abstract: firstSentences(rec.Text, 2),
		Tags:     NormalizeTags(tags, 0),
	}
}

func firstSentences(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	count := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' {
			continue
		}
		count++
		if count == n {
			return text[:i+1]
		}
	}
	return text
}
