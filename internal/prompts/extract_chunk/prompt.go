// Package extract_chunk holds the prompts for the whole-document scan, where
// each fragment of the source is split into the articles it contains.
package extract_chunk

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
	SystemPromptKey = "oracle.extract_chunk.system"
	UserPromptKey   = "oracle.extract_chunk.user"
)

// RegisterPrompts registers the scan prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Scan system prompt - split a text fragment into articles",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Scan user prompt template - the fragment",
	})
}
