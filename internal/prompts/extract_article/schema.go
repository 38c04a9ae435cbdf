package extract_article

import "github.com/jackzampolin/archivist/internal/providers"

// ExtractionSchema is the JSON schema for article extraction output.
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "article_extraction",
		"strict": false,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"found": map[string]any{
					"type":        "boolean",
					"description": "Whether the target article is present in the text",
				},
				"article_text": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Complete article body without title, byline, page numbers or running headers",
				},
				"confidence": map[string]any{
					"type":        "string",
					"description": "high, medium, low, or none when not found",
				},
				"matched_title_form": map[string]any{
					"type":        []string{"string", "null"},
					"description": "The title exactly as printed in the text",
				},
				"search_notes": map[string]any{
					"type":        []string{"string", "null"},
					"description": "What was searched for when the article was not found",
				},
			},
			"required": []string{"found"},
		},
	},
}

var schema = providers.MustSchema(ExtractionSchema)

// Schema returns the compiled extraction schema.
func Schema() *providers.Schema {
	return schema
}

// Result is the oracle's reply as decoded from JSON.
type Result struct {
	Found            bool    `json:"found"`
	ArticleText      *string `json:"article_text"`
	Confidence       string  `json:"confidence"`
	MatchedTitleForm *string `json:"matched_title_form"`
	SearchNotes      *string `json:"search_notes"`
}

// ParseResult strips fences, parses and validates content.
func ParseResult(content string) (*Result, error) {
	var r Result
	if err := schema.Decode(content, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
