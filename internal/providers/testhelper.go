package providers

import (
	"os"
)

// TestConfig holds provider API keys loaded from environment variables so
// integration tests use the same configuration pattern as production.
type TestConfig struct {
	OpenRouterAPIKey string
	GeminiAPIKey     string
}

// LoadTestConfig loads provider API keys from environment variables.
func LoadTestConfig() TestConfig {
	return TestConfig{
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
	}
}

// HasOpenRouter returns true if an OpenRouter API key is configured.
func (c TestConfig) HasOpenRouter() bool {
	return c.OpenRouterAPIKey != ""
}

// HasGemini returns true if a Gemini API key is configured.
func (c TestConfig) HasGemini() bool {
	return c.GeminiAPIKey != ""
}

// NewOpenRouterClient creates an OpenRouter client from test config.
// Returns nil if not configured.
func (c TestConfig) NewOpenRouterClient() *OpenRouterClient {
	if !c.HasOpenRouter() {
		return nil
	}
	return NewOpenRouterClient(OpenRouterConfig{APIKey: c.OpenRouterAPIKey})
}

// NewGeminiClient creates an OpenAI-compatible client against Gemini.
// Returns nil if not configured.
func (c TestConfig) NewGeminiClient() *OpenAIClient {
	if !c.HasGemini() {
		return nil
	}
	return NewOpenAIClient(OpenAIConfig{APIKey: c.GeminiAPIKey, BaseURL: GeminiOpenAIBaseURL})
}
