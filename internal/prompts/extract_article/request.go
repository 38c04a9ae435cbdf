package extract_article

import (
	"strconv"

	"github.com/jackzampolin/archivist/internal/prompts"
	"github.com/jackzampolin/archivist/internal/providers"
)

// Defaults for extraction requests.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 12000
)

// Input contains the data needed for one extraction request.
type Input struct {
	Title     string
	Authors   []string
	Page      *int
	NextTitle string
	Text      string

	// Nil or zero values use the package defaults.
	Temperature *float64
	MaxTokens   int
}

// UserPromptData is the data passed to the user template.
type UserPromptData struct {
	Title     string
	Authors   []string
	Page      string
	NextTitle string
	Text      string
}

// BuildRequest renders the prompts and builds the chat request.
func BuildRequest(r *prompts.Resolver, in Input) (*providers.ChatRequest, *prompts.Conversation, error) {
	data := UserPromptData{
		Title:     in.Title,
		Authors:   in.Authors,
		NextTitle: in.NextTitle,
		Text:      in.Text,
	}
	if in.Page != nil {
		data.Page = strconv.Itoa(*in.Page)
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
