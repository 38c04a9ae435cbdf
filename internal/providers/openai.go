package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName = "openai"

	// GeminiOpenAIBaseURL is Gemini's OpenAI-compatible endpoint.
	GeminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// OpenAIConfig holds configuration for any OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	RateLimit    int // Requests per minute (0 = unlimited)
	HTTPClient   *http.Client
}

// OpenAIClient implements LLMClient with the official OpenAI SDK. Pointing
// BaseURL at GeminiOpenAIBaseURL talks to Gemini.
type OpenAIClient struct {
	client       openai.Client
	defaultModel string
	limiter      *RateLimiter
}

// NewOpenAIClient creates a new OpenAI-compatible client. SDK-level retries
// are disabled.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gemini-2.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &OpenAIClient{
		client:       openai.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
	}
	if cfg.RateLimit > 0 {
		c.limiter = NewRateLimiter(cfg.RateLimit)
	}
	return c
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Chat sends a single chat completion request. Structured output is not
// requested from the endpoint; callers validate the returned JSON locally.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	result := &ChatResult{
		RequestID: requestID,
		Provider:  OpenAIName,
		ModelUsed: model,
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			result.fail("context_cancelled", err, start)
			return result, err
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		err = c.mapError(err)
		result.fail("http_error", err, start)
		return result, err
	}

	if resp.Model != "" {
		result.ModelUsed = resp.Model
	}
	result.PromptTokens = int(resp.Usage.PromptTokens)
	result.CompletionTokens = int(resp.Usage.CompletionTokens)
	result.TotalTokens = int(resp.Usage.TotalTokens)

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("%w: no choices (model=%s, id=%s)", ErrEmptyResponse, resp.Model, resp.ID)
		result.fail("empty_response", err, start)
		return result, err
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		err := fmt.Errorf("%w: blank content (finish_reason=%s)", ErrEmptyResponse, resp.Choices[0].FinishReason)
		result.fail("empty_response", err, start)
		return result, err
	}

	result.Success = true
	result.Content = content
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// mapError converts SDK API errors to *StatusError so callers can classify
// them without importing the SDK.
func (c *OpenAIClient) mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("request failed: %w", err)
	}
	se := &StatusError{
		Provider:   OpenAIName,
		StatusCode: apiErr.StatusCode,
		Code:       apiErr.Code,
		Message:    apiErr.Message,
	}
	if se.Message == "" {
		se.Message = apiErr.Error()
	}
	if apiErr.Response != nil {
		se.RetryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
	}
	if se.StatusCode == http.StatusTooManyRequests && c.limiter != nil {
		c.limiter.Record429(se.RetryAfter)
	}
	return se
}

var _ LLMClient = (*OpenAIClient)(nil)
