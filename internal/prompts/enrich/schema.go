package enrich

import "github.com/jackzampolin/archivist/internal/providers"

// MaxTags caps the number of tags kept from a reply.
const MaxTags = 8

// EnrichmentSchema is the JSON schema for enrichment output.
var EnrichmentSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "article_enrichment",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"abstract": map[string]any{
					"type":        "string",
					"description": "Two to four sentence summary of the article",
				},
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Three to eight topical tags in Title Case",
				},
			},
			"required":             []string{"abstract", "tags"},
			"additionalProperties": false,
		},
	},
}

var schema = providers.MustSchema(EnrichmentSchema)

// Schema returns the compiled enrichment schema.
func Schema() *providers.Schema {
	return schema
}

// Result is the decoded enrichment reply.
type Result struct {
	Abstract string   `json:"abstract"`
	Tags     []string `json:"tags"`
}

// ParseResult strips fences, parses and validates content.
func ParseResult(content string) (*Result, error) {
	var r Result
	if err := schema.Decode(content, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
