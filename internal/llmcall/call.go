// Package llmcall provides LLM call recording and querying for traceability.
// Every oracle request is recorded with its prompt key, response, and metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/archivist/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id" yaml:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LatencyMs int       `json:"latency_ms" yaml:"latency_ms"`

	// Context references
	RunID       string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Entry       string `json:"entry,omitempty" yaml:"entry,omitempty"` // TOC title being searched for
	Strategy    string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	RegionIndex int    `json:"region_index" yaml:"region_index"`
	Attempt     int    `json:"attempt" yaml:"attempt"`

	// Prompt traceability
	PromptKey  string `json:"prompt_key" yaml:"prompt_key"`
	PromptHash string `json:"prompt_hash,omitempty" yaml:"prompt_hash,omitempty"` // Links to the exact template versions used

	// Model info
	Provider    string   `json:"provider" yaml:"provider"`
	Model       string   `json:"model" yaml:"model"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// Token usage
	InputTokens  int     `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int     `json:"output_tokens" yaml:"output_tokens"`
	CostUSD      float64 `json:"cost_usd,omitempty" yaml:"cost_usd,omitempty"`

	// Response
	Response string `json:"response" yaml:"response"`

	// Status
	Success bool   `json:"success" yaml:"success"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	// Context references (all optional)
	RunID       string
	Entry       string
	Strategy    string
	RegionIndex int
	Attempt     int

	// Prompt identification (required for traceability)
	PromptKey  string
	PromptHash string

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64

	// Request is written to dump files when dumps are enabled.
	Request *providers.ChatRequest

	// Err is the transport error, if any. It takes precedence over the
	// result's own error message.
	Err error
}

// FromChatResult creates a Call from a ChatResult.
// A nil result with a non-nil opts.Err still produces a failed call.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		if opts.Err == nil {
			return nil
		}
		result = &providers.ChatResult{}
	}

	call := &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		RunID:        opts.RunID,
		Entry:        opts.Entry,
		Strategy:     opts.Strategy,
		RegionIndex:  opts.RegionIndex,
		Attempt:      opts.Attempt,
		PromptKey:    opts.PromptKey,
		PromptHash:   opts.PromptHash,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		Temperature:  opts.Temperature,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		CostUSD:      result.CostUSD,
		Response:     result.Content,
		Success:      result.Success && opts.Err == nil,
	}

	switch {
	case opts.Err != nil:
		call.Error = opts.Err.Error()
	case !result.Success:
		call.Error = result.ErrorMessage
	}

	return call
}
