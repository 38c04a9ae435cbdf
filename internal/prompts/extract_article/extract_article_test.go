package extract_article

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/archivist/internal/prompts"
	"github.com/jackzampolin/archivist/internal/providers"
)

func newResolver() *prompts.Resolver {
	r := prompts.NewResolver("", nil)
	RegisterPrompts(r)
	return r
}

func TestBuildRequest(t *testing.T) {
	page := 42
	req, conv, err := BuildRequest(newResolver(), Input{
		Title:     "The Bodhisattva Ideal",
		Authors:   []string{"A. Writer", "B. Scholar"},
		Page:      &page,
		NextTitle: "On Emptiness",
		Text:      "candidate window text",
	})
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	user := req.Messages[1].Content
	for _, want := range []string{
		"Title: The Bodhisattva Ideal",
		"Authors: A. Writer, B. Scholar",
		"Printed page (hint): 42",
		"Next article in the table of contents: On Emptiness",
		"candidate window text",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	if req.Temperature != DefaultTemperature || req.MaxTokens != DefaultMaxTokens {
		t.Errorf("temperature/max tokens = %v/%d", req.Temperature, req.MaxTokens)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
		t.Error("expected json_schema response format")
	}
	if conv.System.Key != SystemPromptKey || conv.User.Key != UserPromptKey {
		t.Errorf("conversation keys = %s, %s", conv.System.Key, conv.User.Key)
	}
}

func TestBuildRequest_OptionalFields(t *testing.T) {
	zero := 0.0
	req, _, err := BuildRequest(newResolver(), Input{Title: "Untitled", Text: "x", Temperature: &zero, MaxTokens: 10})
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	user := req.Messages[1].Content
	if strings.Contains(user, "Printed page") || strings.Contains(user, "Next article") {
		t.Errorf("optional lines should be omitted:\n%s", user)
	}
	if !strings.Contains(user, "Authors: unknown") {
		t.Error("missing authors should render as unknown")
	}
	if req.Temperature != 0 || req.MaxTokens != 10 {
		t.Errorf("overrides not applied: %v/%d", req.Temperature, req.MaxTokens)
	}
}

func TestParseResult(t *testing.T) {
	t.Run("found with fences", func(t *testing.T) {
		r, err := ParseResult("```json\n{\"found\": true, \"article_text\": \"body\", \"confidence\": \"high\", \"matched_title_form\": \"THE IDEAL\"}\n```")
		if err != nil {
			t.Fatalf("ParseResult() error = %v", err)
		}
		if !r.Found || *r.ArticleText != "body" || r.Confidence != "high" || *r.MatchedTitleForm != "THE IDEAL" {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("not found", func(t *testing.T) {
		r, err := ParseResult(`{"found": false, "article_text": "", "confidence": "none", "search_notes": "no heading"}`)
		if err != nil {
			t.Fatalf("ParseResult() error = %v", err)
		}
		if r.Found || *r.SearchNotes != "no heading" {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("null text", func(t *testing.T) {
		r, err := ParseResult(`{"found": true, "article_text": null}`)
		if err != nil {
			t.Fatalf("ParseResult() error = %v", err)
		}
		if r.ArticleText != nil {
			t.Error("expected nil article text")
		}
	})

	for _, bad := range []string{"", "not json", `{"article_text": "x"}`, `{"found": "yes"}`} {
		if _, err := ParseResult(bad); !errors.Is(err, providers.ErrMalformedOutput) {
			t.Errorf("ParseResult(%q) error = %v, want ErrMalformedOutput", bad, err)
		}
	}
}
