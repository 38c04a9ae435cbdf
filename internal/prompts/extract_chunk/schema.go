package extract_chunk

import (
	"strings"

	"github.com/jackzampolin/archivist/internal/providers"
)

// ArticlesSchema validates the scan reply: a bare array of articles.
// Providers are not asked to enforce it since strict mode needs an object root.
var ArticlesSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Title":    map[string]any{"type": "string"},
			"Authors":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"Abstract": map[string]any{"type": "string"},
			"Text":     map[string]any{"type": "string"},
		},
		"required": []string{"Title", "Text"},
	},
}

var schema = providers.MustSchema(ArticlesSchema)

// Schema returns the compiled scan schema.
func Schema() *providers.Schema {
	return schema
}

// Article is one entry of the scan reply.
type Article struct {
	Title    string   `json:"Title"`
	Authors  []string `json:"Authors"`
	Abstract string   `json:"Abstract"`
	Text     string   `json:"Text"`
}

// ParseResult strips fences, parses and validates content. Articles with a
// blank title are dropped.
func ParseResult(content string) ([]Article, error) {
	var articles []Article
	if err := schema.Decode(content, &articles); err != nil {
		return nil, err
	}
	out := articles[:0]
	for _, a := range articles {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
