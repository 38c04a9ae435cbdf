package enrich

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
	SystemPromptKey = "oracle.enrich.system"
	UserPromptKey   = "oracle.enrich.user"
)

// RegisterPrompts registers the enrichment prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Enrichment system prompt - abstract and topical tags for a matched article",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Enrichment user prompt template - title, authors and a text preview",
	})
}
