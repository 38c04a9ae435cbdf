package enrich

import (
	"github.com/jackzampolin/archivist/internal/prompts"
	"github.com/jackzampolin/archivist/internal/providers"
)

// Defaults for enrichment requests.
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1000
	PreviewRunes       = 3000
)

// Input contains the data needed for one enrichment request.
type Input struct {
	Title   string
	Authors []string
	Text    string

	// Nil or zero values use the package defaults.
	Temperature *float64
	MaxTokens   int
}

// UserPromptData is the data passed to the user template.
type UserPromptData struct {
	Title   string
	Authors []string
	Preview string
}

// Preview returns at most the first PreviewRunes runes of text.
func Preview(text string) string {
	n := 0
	for i := range text {
		if n == PreviewRunes {
			return text[:i]
		}
		n++
	}
	return text
}

// BuildRequest renders the prompts and builds the chat request.
func BuildRequest(r *prompts.Resolver, in Input) (*providers.ChatRequest, *prompts.Conversation, error) {
	data := UserPromptData{
		Title:   in.Title,
		Authors: in.Authors,
		Preview: Preview(in.Text),
	}
	conv, err := r.RenderConversation(SystemPromptKey, UserPromptKey, data)
	if err != nil {
		return nil, nil, err
	}

	temperature := DefaultTemperature
	if in.Temperature != nil {
		temperature = *in.Temperature
	}
	maxTokens := in.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: conv.System.Text},
			{Role: "user", Content: conv.User.Text},
		},
		ResponseFormat: schema.ResponseFormat(),
		Temperature:    temperature,
		MaxTokens:      maxTokens,
	}, conv, nil
}
