package providers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const MockClientName = "mock"

// MockResponse is one scripted reply. Err, when set, is returned instead of
// Content.
type MockResponse struct {
	Content string
	Err     error
}

// MockClient is an LLMClient for testing. Responses are returned in order;
// once the script is exhausted the last entry repeats. Handler, when set,
// takes precedence over the script.
type MockClient struct {
	Responses []MockResponse
	Handler   func(req *ChatRequest) (string, error)
	Latency   time.Duration

	mu       sync.Mutex
	requests []*ChatRequest
}

// NewMockClient returns a client that replies with the given contents.
func NewMockClient(contents ...string) *MockClient {
	m := &MockClient{}
	for _, c := range contents {
		m.Responses = append(m.Responses, MockResponse{Content: c})
	}
	return m
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat returns the next scripted response.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	c.mu.Lock()
	c.requests = append(c.requests, req)
	n := len(c.requests)
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", n),
		Provider:  MockClientName,
		ModelUsed: req.Model,
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			result.fail("context_cancelled", ctx.Err(), start)
			return result, ctx.Err()
		}
	}

	content, err := c.next(req, n)
	if err != nil {
		result.fail("mock_failure", err, start)
		return result, err
	}

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}
	result.Success = true
	result.Content = content
	result.PromptTokens = promptTokens
	result.CompletionTokens = len(content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)
	return result, nil
}

func (c *MockClient) next(req *ChatRequest, n int) (string, error) {
	if c.Handler != nil {
		return c.Handler(req)
	}
	if len(c.Responses) == 0 {
		return "", fmt.Errorf("%w: mock has no scripted responses", ErrEmptyResponse)
	}
	r := c.Responses[min(n, len(c.Responses))-1]
	return r.Content, r.Err
}

// Requests returns every request received so far.
func (c *MockClient) Requests() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// RequestCount returns the number of Chat calls.
func (c *MockClient) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

var _ LLMClient = (*MockClient)(nil)
