package extract_chunk

import (
	"github.com/jackzampolin/archivist/internal/prompts"
	"github.com/jackzampolin/archivist/internal/providers"
)

// DefaultMaxTokens bounds a scan reply.
const DefaultMaxTokens = 2000

// Input contains the data needed for one scan request.
type Input struct {
	Text string

	// Nil temperature means 0.
	Temperature *float64
	MaxTokens   int
}

// BuildRequest renders the prompts and builds the chat request.
func BuildRequest(r *prompts.Resolver, in Input) (*providers.ChatRequest, *prompts.Conversation, error) {
	conv, err := r.RenderConversation(SystemPromptKey, UserPromptKey, struct{ Text string }{in.Text})
	if err != nil {
		return nil, nil, err
	}

	var temperature float64
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
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, conv, nil
}
