package extract_article

import (
	_ "embed"

	"github.com/jackzampolin/archivist/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

// Prompt keys
const (
	SystemPromptKey = "oracle.extract_article.system"
	UserPromptKey   = "oracle.extract_article.user"
)

// SystemPrompt returns the embedded system prompt for article extraction.
func SystemPrompt() string {
	return systemPrompt
}

// RegisterPrompts registers the article extraction prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Article extraction system prompt - matching rules for locating one article in a candidate window",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Article extraction user prompt template - target metadata and candidate text",
	})
}
