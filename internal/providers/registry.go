package providers

import (
	"fmt"
	"time"
)

// ClientConfig selects and configures an LLM client.
type ClientConfig struct {
	Type      string // "openrouter", "openai", "mock"
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // Requests per minute
}

// NewClient builds the LLM client named by cfg.Type.
func NewClient(cfg ClientConfig) (LLMClient, error) {
	switch cfg.Type {
	case OpenRouterName:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openrouter requires an API key")
		}
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
		}), nil
	case OpenAIName, "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s requires an API key", cfg.Type)
		}
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Type == "gemini" {
			baseURL = GeminiOpenAIBaseURL
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      baseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
		}), nil
	case MockClientName:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %q", cfg.Type)
	}
}
